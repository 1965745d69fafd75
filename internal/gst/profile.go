package gst

import (
	"fmt"
	"regexp"
	"strings"

	"gstfiling/internal/domain"
)

const gstinLength = 15

var gstinPattern = regexp.MustCompile(`^\d{2}[A-Z]{5}\d{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)

// Profile validation codes.
const (
	CodeGSTINMissing           = "GSTIN_MISSING"
	CodeGSTINInvalidLength     = "GSTIN_INVALID_LENGTH"
	CodeGSTINInvalidFormat     = "GSTIN_INVALID_FORMAT"
	CodeGSTINUnknownState      = "GSTIN_UNKNOWN_STATE"
	CodeLegalNameMissing       = "LEGAL_NAME_MISSING"
	CodeInvalidRegistration    = "INVALID_REGISTRATION_CATEGORY"
	CodeInvalidFilingFrequency = "INVALID_FILING_FREQUENCY"
)

// ProfileResult is the outcome of validating a filer profile.
type ProfileResult struct {
	Complete bool                    `json:"profile_complete"`
	Errors   domain.ValidationErrors `json:"errors"`
}

// ValidateProfile checks that a filer's registration identity is well-formed.
// Every failure is a BLOCKER; the profile is complete only when none are found.
func (e *Engine) ValidateProfile(p *domain.Profile) ProfileResult {
	errs := domain.ValidationErrors{}
	if p == nil {
		errs = append(errs, domain.NewBlocker(domain.SectionProfile, CodeGSTINMissing,
			"Filer profile is missing", "Create the filer profile before starting a return").On("gstin"))
		return ProfileResult{Errors: errs}
	}

	errs = append(errs, e.checkGSTIN(p.GSTIN)...)

	if strings.TrimSpace(p.LegalName) == "" {
		errs = append(errs, domain.NewBlocker(domain.SectionProfile, CodeLegalNameMissing,
			"Legal name is required", "Enter the legal name exactly as on the registration certificate").On("legal_name"))
	}
	if !p.RegistrationCategory.Valid() {
		errs = append(errs, domain.NewBlocker(domain.SectionProfile, CodeInvalidRegistration,
			fmt.Sprintf("Registration category %q is not recognised", p.RegistrationCategory),
			"Choose one of: regular, composition, quarterly_scheme").On("registration_category"))
	}
	if !p.FilingFrequency.Valid() {
		errs = append(errs, domain.NewBlocker(domain.SectionProfile, CodeInvalidFilingFrequency,
			fmt.Sprintf("Filing frequency %q is not recognised", p.FilingFrequency),
			"Choose monthly or quarterly").On("filing_frequency"))
	}

	return ProfileResult{Complete: len(errs) == 0, Errors: errs}
}

// checkGSTIN validates a filer GSTIN. Format and jurisdiction are only
// examined once the length is right, so a short number yields one finding.
func (e *Engine) checkGSTIN(gstin string) domain.ValidationErrors {
	gstin = strings.TrimSpace(gstin)
	if gstin == "" {
		return domain.ValidationErrors{domain.NewBlocker(domain.SectionProfile, CodeGSTINMissing,
			"GSTIN is required", "Enter the 15-character GSTIN from the registration certificate").On("gstin")}
	}
	if len(gstin) != gstinLength {
		return domain.ValidationErrors{domain.NewBlocker(domain.SectionProfile, CodeGSTINInvalidLength,
			fmt.Sprintf("GSTIN must be exactly %d characters, got %d", gstinLength, len(gstin)),
			"Check the GSTIN for missing or extra characters").On("gstin")}
	}

	var errs domain.ValidationErrors
	if !gstinPattern.MatchString(gstin) {
		errs = append(errs, domain.NewBlocker(domain.SectionProfile, CodeGSTINInvalidFormat,
			fmt.Sprintf("GSTIN %s does not match the expected format", gstin),
			"Format is 2 digits, 5 letters, 4 digits, 1 letter, 1 entity code, Z, 1 check character").On("gstin"))
	}
	if !e.table.KnownState(gstin[:2]) {
		errs = append(errs, domain.NewBlocker(domain.SectionProfile, CodeGSTINUnknownState,
			fmt.Sprintf("GSTIN state code %s is not a known jurisdiction", gstin[:2]),
			"The first two digits must be a state code between 01 and 38").On("gstin"))
	}
	return errs
}

// ValidGSTIN reports whether s has the length, shape and jurisdiction of a GSTIN.
func (e *Engine) ValidGSTIN(s string) bool {
	return len(s) == gstinLength && gstinPattern.MatchString(s) && e.table.KnownState(s[:2])
}
