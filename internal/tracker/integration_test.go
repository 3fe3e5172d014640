package tracker_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/zombor/taxishift/internal/shift"
	"github.com/zombor/taxishift/internal/tracker"
)

// fixedScanner returns the same shift for every photo
type fixedScanner struct {
	raw shift.RawShiftData
}

func (f *fixedScanner) ScanShift(ctx context.Context, imageData []byte, contentType string) (*shift.RawShiftData, error) {
	raw := f.raw
	return &raw, nil
}

func (f *fixedScanner) Close() error {
	return nil
}

var _ = Describe("Integration", func() {
	var (
		tempDir     string
		dbPath      string
		storagePath string
		db          *tracker.BoltDB
		store       *tracker.LocalStorage
		service     *tracker.Service
		ghServer    *ghttp.Server
		err         error
	)

	BeforeEach(func() {
		tempDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tempDir, "test.db")
		storagePath = filepath.Join(tempDir, "receipts")

		db, err = tracker.NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())

		store, err = tracker.NewLocalStorage(storagePath)
		Expect(err).NotTo(HaveOccurred())

		scanner := &fixedScanner{raw: shift.RawShiftData{
			TotalAmount:   300,
			PaidInCareem:  50,
			TotalHiredKm:  100,
			VacantKm:      20,
			TotalTrip:     10,
			BookingTrip:   2,
			TollwayAmount: 15,
			OtherExpenses: 5,
			Date:          "2024-05-06",
		}}
		service = tracker.NewService(db, scanner, store, tracker.NewSessionStore(time.Hour))
		server := tracker.NewServer(service)

		ghServer = ghttp.NewServer()
		for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete} {
			ghServer.RouteToHandler(method, regexp.MustCompile(`.*`), server.ServeHTTP)
		}
	})

	AfterEach(func() {
		ghServer.Close()
		if db != nil {
			db.Close()
		}
	})

	send := func(req *http.Request, token string) *http.Response {
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	It("should carry a driver from registration to a persisted shift", func() {
		By("registering")
		form, _ := json.Marshal(tracker.RegisterRequest{
			ID:              "1001",
			Name:            "Ahmed",
			CarSideNumber:   "D-42",
			Password:        "secret",
			ConfirmPassword: "secret",
		})
		req, _ := http.NewRequest(http.MethodPost, ghServer.URL()+"/api/register", bytes.NewReader(form))
		resp := send(req, "")
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))
		var sess tracker.Session
		Expect(json.NewDecoder(resp.Body).Decode(&sess)).To(Succeed())
		resp.Body.Close()

		By("uploading a summary photo")
		var body bytes.Buffer
		writer := multipart.NewWriter(&body)
		part, err := writer.CreateFormFile("file", "IMG 2024.jpg")
		Expect(err).NotTo(HaveOccurred())
		part.Write([]byte("\xff\xd8\xff\xe0 fake jpeg"))
		writer.Close()

		req, _ = http.NewRequest(http.MethodPost, ghServer.URL()+"/api/shifts", &body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		resp = send(req, sess.Token)
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))
		var calculated shift.CalculatedShift
		Expect(json.NewDecoder(resp.Body).Decode(&calculated)).To(Succeed())
		resp.Body.Close()

		Expect(calculated.ShiftTotalIncome).To(BeNumerically("~", 350, 1e-9))
		Expect(calculated.CleanMoney).To(BeNumerically("~", 235, 1e-9))
		Expect(calculated.DailyPercentage).To(Equal(15))
		Expect(calculated.ReceiptFile).To(HaveSuffix("_IMG_2024.jpg"))

		By("finding the photo on disk")
		_, err = os.Stat(filepath.Join(storagePath, calculated.ReceiptFile))
		Expect(err).NotTo(HaveOccurred())

		By("finding the shift in the database")
		shifts, err := db.LoadShiftHistory("1001")
		Expect(err).NotTo(HaveOccurred())
		Expect(shifts).To(HaveLen(1))
		Expect(shifts[0].ID).To(Equal(calculated.ID))

		By("logging in again after a restart")
		Expect(db.Close()).To(Succeed())
		db, err = tracker.NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
		restarted := tracker.NewService(db, &fixedScanner{}, store, tracker.NewSessionStore(time.Hour))

		newSess, err := restarted.Login("1001", "secret")
		Expect(err).NotTo(HaveOccurred())
		summary, err := restarted.Dashboard(newSess)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.ShiftCount).To(Equal(1))
		Expect(summary.TotalCleanMoney).To(BeNumerically("~", 235, 1e-9))

		By("deleting the shift")
		Expect(restarted.DeleteShift(newSess, calculated.ID)).To(Succeed())
		_, err = os.Stat(filepath.Join(storagePath, calculated.ReceiptFile))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})
})
