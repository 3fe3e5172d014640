package tracker

import (
	"bytes"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"

	"github.com/zombor/taxishift/internal/shift"
)

var _ = Describe("WriteHistoryXLSX", func() {
	var (
		user   User
		shifts []*shift.CalculatedShift
		rows   [][]string
	)

	BeforeEach(func() {
		user = User{ID: "1001", Name: "Ahmed"}
		calculator := shift.NewCalculatorWithDeps(&sequenceIDs{}, &mockTimeSource{now: time.Date(2024, 5, 6, 22, 30, 0, 0, time.UTC)})
		first, err := calculator.Calculate(*sampleRawShift())
		Expect(err).NotTo(HaveOccurred())
		second, err := calculator.Calculate(shift.RawShiftData{TotalAmount: 130, Date: "2024-05-07"})
		Expect(err).NotTo(HaveOccurred())
		shifts = []*shift.CalculatedShift{first, second}
	})

	JustBeforeEach(func() {
		var buf bytes.Buffer
		Expect(WriteHistoryXLSX(&buf, user, shifts)).To(Succeed())

		f, err := excelize.OpenReader(&buf)
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()

		Expect(f.GetSheetList()).To(Equal([]string{"Shifts"}))
		rows, err = f.GetRows("Shifts")
		Expect(err).NotTo(HaveOccurred())
	})

	It("should write the header row", func() {
		Expect(rows[0][0]).To(Equal("Shift Date"))
		Expect(rows[0]).To(HaveLen(18))
		Expect(rows[0][16]).To(Equal("Clean Money"))
	})

	It("should write one row per shift", func() {
		Expect(rows[1][0]).To(Equal("2024-05-06"))
		Expect(rows[1][16]).To(Equal("235"))
		Expect(rows[1][17]).To(Equal("15"))
		Expect(rows[2][0]).To(Equal("2024-05-07"))
		Expect(rows[2][17]).To(Equal("5"))
	})

	It("should write the totals after a blank row", func() {
		Expect(rows).To(HaveLen(5))
		Expect(rows[3]).To(BeEmpty())
		Expect(rows[4][0]).To(Equal("Total"))
		Expect(rows[4][16]).To(Equal("365"))
		Expect(rows[4][17]).To(Equal("10"))
	})

	When("there are no shifts", func() {
		BeforeEach(func() {
			shifts = nil
		})

		It("should still write the header and zero totals", func() {
			Expect(rows[0][0]).To(Equal("Shift Date"))
			Expect(rows[len(rows)-1][0]).To(Equal("Total"))
			Expect(rows[len(rows)-1][16]).To(Equal("0"))
		})
	})
})
