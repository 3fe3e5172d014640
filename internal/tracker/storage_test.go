package tracker

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage Storage
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(filepath.Join(tmpDir, "receipts"))
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Save", func() {
		var (
			filename  string
			data      []byte
			savedPath string
			err       error
		)

		BeforeEach(func() {
			filename = "shift-1_summary.jpg"
			data = []byte("test file content")
		})

		JustBeforeEach(func() {
			savedPath, err = storage.Save(filename, data)
		})

		When("saving succeeds", func() {
			It("should return the file name", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(savedPath).To(Equal(filename))
			})

			It("should write the file under the base directory", func() {
				content, readErr := os.ReadFile(filepath.Join(tmpDir, "receipts", filename))
				Expect(readErr).NotTo(HaveOccurred())
				Expect(content).To(Equal(data))
			})
		})

		When("the name escapes the directory", func() {
			BeforeEach(func() {
				filename = "../outside.jpg"
			})

			It("should return an error", func() {
				Expect(err).To(HaveOccurred())
				_, statErr := os.Stat(filepath.Join(tmpDir, "outside.jpg"))
				Expect(os.IsNotExist(statErr)).To(BeTrue())
			})
		})
	})

	Describe("Get", func() {
		It("should return the saved content", func() {
			_, err := storage.Save("a.png", []byte("png"))
			Expect(err).NotTo(HaveOccurred())

			data, err := storage.Get("a.png")
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("png")))
		})

		It("should return an error for a missing file", func() {
			_, err := storage.Get("missing.png")
			Expect(err).To(HaveOccurred())
		})

		It("should refuse path traversal", func() {
			_, err := storage.Get("../../etc/passwd")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Delete", func() {
		It("should remove the file", func() {
			_, err := storage.Save("a.png", []byte("png"))
			Expect(err).NotTo(HaveOccurred())

			Expect(storage.Delete("a.png")).To(Succeed())
			_, err = storage.Get("a.png")
			Expect(err).To(HaveOccurred())
		})

		It("should return an error for a missing file", func() {
			Expect(storage.Delete("missing.png")).NotTo(Succeed())
		})
	})
})

var _ = DescribeTable("sanitizeFilename",
	func(input, expected string) {
		Expect(sanitizeFilename(input)).To(Equal(expected))
	},
	Entry("keeps a plain name", "summary.jpg", "summary.jpg"),
	Entry("lowercases the extension", "IMG_0001.JPG", "IMG_0001.jpg"),
	Entry("replaces spaces", "shift  report 1.png", "shift_report_1.png"),
	Entry("strips special characters", "report(1)#!.pdf", "report1.pdf"),
	Entry("drops directories", "/tmp/uploads/summary.heic", "summary.heic"),
	Entry("drops windows directories", `C:\Users\driver\summary.jpg`, "summary.jpg"),
	Entry("drops an overlong extension", "summary.verylongext", "summary"),
	Entry("falls back when nothing is left", "!!!.jpg", "receipt.jpg"),
	Entry("handles an empty name", "", "receipt"),
	Entry("truncates long names", strings.Repeat("a", 80)+".jpg", strings.Repeat("a", 50)+".jpg"),
)
