package tracker

import (
	"errors"
	"fmt"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/taxishift/internal/scanning"
	"github.com/zombor/taxishift/internal/shift"
)

var _ = DescribeTable("classifyError",
	func(err error, status int, kind string) {
		code, body := classifyError(err, 8<<20)
		Expect(code).To(Equal(status))
		Expect(body.Kind).To(Equal(kind))
		Expect(body.Error).NotTo(BeEmpty())
	},
	Entry("validation", &ValidationError{Message: "bad"}, http.StatusBadRequest, "validation"),
	Entry("invalid figures", fmt.Errorf("%w: totalAmount is NaN", shift.ErrInvalidInput), http.StatusBadRequest, "validation"),
	Entry("credentials", ErrInvalidCredentials, http.StatusUnauthorized, "credentials"),
	Entry("no session", ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"),
	Entry("unknown shift", fmt.Errorf("%w: x", ErrShiftNotFound), http.StatusNotFound, "not_found"),
	Entry("busy", ErrExtractionInProgress, http.StatusConflict, "busy"),
	Entry("too large", ErrImageTooLarge, http.StatusRequestEntityTooLarge, "too_large"),
	Entry("missing key", fmt.Errorf("scanning receipt: %w", scanning.ErrConfiguration), http.StatusServiceUnavailable, "configuration"),
	Entry("rejected key", fmt.Errorf("scanning receipt: %w", scanning.ErrAuthorization), http.StatusServiceUnavailable, "authorization"),
	Entry("unreadable photo", fmt.Errorf("scanning receipt: %w", scanning.ErrExtraction), http.StatusUnprocessableEntity, "extraction"),
	Entry("storage", storageError("saving", errors.New("disk full")), http.StatusInternalServerError, "storage"),
	Entry("anything else", errors.New("boom"), http.StatusInternalServerError, "internal"),
)

var _ = Describe("classifyError messages", func() {
	It("should state the upload cap in megabytes", func() {
		_, body := classifyError(ErrImageTooLarge, 8<<20)
		Expect(body.Error).To(ContainSubstring("8 MB"))
	})

	It("should show validation messages as is", func() {
		_, body := classifyError(&ValidationError{Message: "Passwords do not match."}, 8<<20)
		Expect(body.Error).To(Equal("Passwords do not match."))
	})

	It("should keep storage causes out of the message", func() {
		_, body := classifyError(storageError("saving", errors.New("/var/lib/secret path")), 8<<20)
		Expect(body.Error).NotTo(ContainSubstring("/var/lib"))
	})
})
