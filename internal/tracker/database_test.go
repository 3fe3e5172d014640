package tracker

import (
	"errors"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/taxishift/internal/shift"
)

var _ = Describe("BoltDB", func() {
	var (
		tmpDir string
		dbPath string
		db     *BoltDB
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Describe("users", func() {
		var record *UserRecord

		BeforeEach(func() {
			record = &UserRecord{
				User: User{
					ID:            "1001",
					Name:          "Ahmed",
					CarSideNumber: "D-42",
					MobileNumber:  "0501234567",
					IsSubscribed:  true,
				},
				PasswordHash: "$2a$04$hash",
				CreatedAt:    time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
			}
		})

		It("should find a created user", func() {
			Expect(db.CreateUser(record)).To(Succeed())

			found, err := db.FindUser("1001")
			Expect(err).NotTo(HaveOccurred())
			Expect(found.Name).To(Equal("Ahmed"))
			Expect(found.CarSideNumber).To(Equal("D-42"))
			Expect(found.PasswordHash).To(Equal("$2a$04$hash"))
			Expect(found.CreatedAt.Equal(record.CreatedAt)).To(BeTrue())
		})

		It("should return ErrUserNotFound for an unknown ID", func() {
			_, err := db.FindUser("nobody")
			Expect(errors.Is(err, ErrUserNotFound)).To(BeTrue())
		})

		It("should refuse to overwrite an existing user", func() {
			Expect(db.CreateUser(record)).To(Succeed())
			record.Name = "Impostor"
			err := db.CreateUser(record)
			Expect(errors.Is(err, ErrUserExists)).To(BeTrue())

			found, _ := db.FindUser("1001")
			Expect(found.Name).To(Equal("Ahmed"))
		})
	})

	Describe("shift history", func() {
		var shifts []*shift.CalculatedShift

		BeforeEach(func() {
			shifts = []*shift.CalculatedShift{
				{ID: "a", CleanMoney: 235, DailyPercentage: 15, Timestamp: time.Date(2024, 5, 6, 22, 0, 0, 0, time.UTC)},
				{ID: "b", CleanMoney: 100, DailyPercentage: 0, Timestamp: time.Date(2024, 5, 7, 22, 0, 0, 0, time.UTC), ReceiptFile: "b_photo.jpg"},
			}
		})

		It("should return an empty history for a new driver", func() {
			loaded, err := db.LoadShiftHistory("1001")
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).NotTo(BeNil())
			Expect(loaded).To(BeEmpty())
		})

		It("should load the saved list in order", func() {
			Expect(db.SaveShiftHistory("1001", shifts)).To(Succeed())

			loaded, err := db.LoadShiftHistory("1001")
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(HaveLen(2))
			Expect(loaded[0].ID).To(Equal("a"))
			Expect(loaded[1].ID).To(Equal("b"))
			Expect(loaded[1].ReceiptFile).To(Equal("b_photo.jpg"))
			Expect(loaded[0].CleanMoney).To(BeNumerically("~", 235, 1e-9))
		})

		It("should replace the whole list on save", func() {
			Expect(db.SaveShiftHistory("1001", shifts)).To(Succeed())
			Expect(db.SaveShiftHistory("1001", shifts[1:])).To(Succeed())

			loaded, err := db.LoadShiftHistory("1001")
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(HaveLen(1))
			Expect(loaded[0].ID).To(Equal("b"))
		})

		It("should store a nil list as empty", func() {
			Expect(db.SaveShiftHistory("1001", nil)).To(Succeed())
			loaded, err := db.LoadShiftHistory("1001")
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(BeEmpty())
		})

		It("should keep drivers apart", func() {
			Expect(db.SaveShiftHistory("1001", shifts)).To(Succeed())
			loaded, err := db.LoadShiftHistory("2002")
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(BeEmpty())
		})
	})

	Describe("persistence", func() {
		It("should survive reopening", func() {
			Expect(db.CreateUser(&UserRecord{User: User{ID: "1001", Name: "Ahmed"}})).To(Succeed())
			Expect(db.SaveShiftHistory("1001", []*shift.CalculatedShift{{ID: "a"}})).To(Succeed())
			Expect(db.Close()).To(Succeed())

			var err error
			db, err = OpenBoltDBReadOnly(dbPath)
			Expect(err).NotTo(HaveOccurred())

			found, err := db.FindUser("1001")
			Expect(err).NotTo(HaveOccurred())
			Expect(found.Name).To(Equal("Ahmed"))

			loaded, err := db.LoadShiftHistory("1001")
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(HaveLen(1))
		})

		It("should refuse writes when opened read-only", func() {
			Expect(db.Close()).To(Succeed())

			var err error
			db, err = OpenBoltDBReadOnly(dbPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(db.SaveShiftHistory("1001", nil)).NotTo(Succeed())
		})
	})
})
