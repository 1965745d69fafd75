package gst_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gstfiling/internal/domain"
	"gstfiling/internal/gst"
)

func TestValidateProfile_Valid(t *testing.T) {
	res := newEngine().ValidateProfile(validProfile())

	assert.True(t, res.Complete)
	assert.Empty(t, res.Errors)
}

func TestValidateProfile_ShortGSTIN_SingleBlocker(t *testing.T) {
	p := validProfile()
	p.GSTIN = "29ABCDE1234F1Z"

	res := newEngine().ValidateProfile(p)

	assert.False(t, res.Complete)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, gst.CodeGSTINInvalidLength, res.Errors[0].Code)
	assert.Equal(t, domain.SeverityBlocker, res.Errors[0].Severity)
	assert.Equal(t, domain.SectionProfile, res.Errors[0].Section)
	assert.Equal(t, "gstin", res.Errors[0].Field)
}

func TestValidateProfile_GSTINChecks(t *testing.T) {
	tests := []struct {
		name  string
		gstin string
		want  []string
	}{
		{"missing", "", []string{gst.CodeGSTINMissing}},
		{"too long", "29ABCDE1234F1Z55", []string{gst.CodeGSTINInvalidLength}},
		{"lowercase letters", "29abcde1234F1Z5", []string{gst.CodeGSTINInvalidFormat}},
		{"missing literal Z", "29ABCDE1234F1X5", []string{gst.CodeGSTINInvalidFormat}},
		{"unknown state", "99ABCDE1234F1Z5", []string{gst.CodeGSTINUnknownState}},
		{"bad format and state", "00abcde1234F1Z5", []string{gst.CodeGSTINInvalidFormat, gst.CodeGSTINUnknownState}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			p.GSTIN = tt.gstin

			res := newEngine().ValidateProfile(p)

			assert.False(t, res.Complete)
			assert.Equal(t, tt.want, codesOf(res.Errors))
		})
	}
}

func TestValidateProfile_AccumulatesAllErrors(t *testing.T) {
	res := newEngine().ValidateProfile(&domain.Profile{
		RegistrationCategory: "casual",
		FilingFrequency:      "yearly",
	})

	assert.False(t, res.Complete)
	assert.Equal(t, []string{
		gst.CodeGSTINMissing,
		gst.CodeLegalNameMissing,
		gst.CodeInvalidRegistration,
		gst.CodeInvalidFilingFrequency,
	}, codesOf(res.Errors))
	for _, e := range res.Errors {
		assert.Equal(t, domain.SeverityBlocker, e.Severity)
		assert.NotEmpty(t, e.FixHint)
	}
}

func TestValidateProfile_Nil(t *testing.T) {
	res := newEngine().ValidateProfile(nil)

	assert.False(t, res.Complete)
	assert.True(t, res.Errors.HasBlocker())
}

func TestValidGSTIN(t *testing.T) {
	e := newEngine()
	assert.True(t, e.ValidGSTIN(filerGSTIN))
	assert.True(t, e.ValidGSTIN(recipientGSTIN))
	assert.False(t, e.ValidGSTIN("29ABCDE1234F1Z"))
	assert.False(t, e.ValidGSTIN("40ABCDE1234F1Z5"))
}
