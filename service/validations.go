package service

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// all input validations will be added here.

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	mobilePattern = regexp.MustCompile(`^[+]?[0-9]{10,13}$`)
	whitespace    = regexp.MustCompile(`\s`)
)

const (
	minSoilPH = 0
	maxSoilPH = 14
)

// FormValue is a form field that clients send either as a JSON string or a JSON number.
type FormValue string

func (v *FormValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = FormValue(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*v = FormValue(n.String())
	return nil
}

func (v FormValue) String() string {
	return string(v)
}

func (v FormValue) present() bool {
	return strings.TrimSpace(string(v)) != ""
}

func (v FormValue) float() (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

type FarmerRequest struct {
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Mobile            string    `json:"mobile"`
	Location          string    `json:"location"`
	Password          string    `json:"password"`
	FarmSize          FormValue `json:"farmSize"`
	SoilType          string    `json:"soilType"`
	SoilPH            FormValue `json:"soilPH"`
	LastCrop          string    `json:"lastCrop"`
	IrrigationType    string    `json:"irrigationType"`
	FertilizerUsage   string    `json:"fertilizerUsage"`
	PesticidesUsed    string    `json:"pesticidesUsed"`
	FarmingExperience FormValue `json:"farmingExperience"`
	ClientRef         string    `json:"clientRef,omitempty"`
}

// FarmerPatch carries only the fields a client wants to change; nil means untouched.
type FarmerPatch struct {
	Name              *string    `json:"name"`
	Email             *string    `json:"email"`
	Mobile            *string    `json:"mobile"`
	Location          *string    `json:"location"`
	Password          *string    `json:"password"`
	FarmSize          *FormValue `json:"farmSize"`
	SoilType          *string    `json:"soilType"`
	SoilPH            *FormValue `json:"soilPH"`
	LastCrop          *string    `json:"lastCrop"`
	IrrigationType    *string    `json:"irrigationType"`
	FertilizerUsage   *string    `json:"fertilizerUsage"`
	PesticidesUsed    *string    `json:"pesticidesUsed"`
	FarmingExperience *FormValue `json:"farmingExperience"`
}

const maxClientRefLength = 64

type requiredField struct {
	name    string
	message string
	value   func(*FarmerRequest) string
}

var requiredFields = []requiredField{
	{"name", "Name is required", func(r *FarmerRequest) string { return r.Name }},
	{"email", "Email is required", func(r *FarmerRequest) string { return r.Email }},
	{"location", "Location is required", func(r *FarmerRequest) string { return r.Location }},
	{"mobile", "Mobile number is required", func(r *FarmerRequest) string { return r.Mobile }},
	{"soilType", "Please select soil type", func(r *FarmerRequest) string { return r.SoilType }},
	{"lastCrop", "Please specify last crop", func(r *FarmerRequest) string { return r.LastCrop }},
	{"irrigationType", "Please select irrigation type", func(r *FarmerRequest) string { return r.IrrigationType }},
	{"farmSize", "Farm size is required", func(r *FarmerRequest) string { return r.FarmSize.String() }},
}

func messageFor(field string) string {
	for _, f := range requiredFields {
		if f.name == field {
			return f.message
		}
	}
	return field + " is required"
}

// ValidateFarmerRequest applies the registration rules and returns every broken field.
func ValidateFarmerRequest(req *FarmerRequest) FieldErrors {
	errs := FieldErrors{}
	if req == nil {
		errs["body"] = "Request body is required"
		return errs
	}

	for _, f := range requiredFields {
		if strings.TrimSpace(f.value(req)) == "" {
			errs[f.name] = f.message
		}
	}

	if _, missing := errs["email"]; !missing {
		checkEmail(errs, req.Email)
	}
	if _, missing := errs["mobile"]; !missing {
		checkMobile(errs, req.Mobile)
	}
	if req.SoilPH.present() {
		checkSoilPH(errs, req.SoilPH)
	}
	if len(req.ClientRef) > maxClientRefLength {
		errs["clientRef"] = "Client reference is too long"
	}
	return errs
}

// ValidateFarmerPatch checks only the fields present in the patch. Required fields may be
// changed but not blanked.
func ValidateFarmerPatch(patch *FarmerPatch) FieldErrors {
	errs := FieldErrors{}
	if patch == nil {
		return errs
	}

	notBlank := func(field string, value *string) bool {
		if value != nil && strings.TrimSpace(*value) == "" {
			errs[field] = messageFor(field)
			return false
		}
		return value != nil
	}

	notBlank("name", patch.Name)
	notBlank("location", patch.Location)
	notBlank("soilType", patch.SoilType)
	notBlank("lastCrop", patch.LastCrop)
	notBlank("irrigationType", patch.IrrigationType)
	if patch.FarmSize != nil && !patch.FarmSize.present() {
		errs["farmSize"] = messageFor("farmSize")
	}
	if notBlank("email", patch.Email) {
		checkEmail(errs, *patch.Email)
	}
	if notBlank("mobile", patch.Mobile) {
		checkMobile(errs, *patch.Mobile)
	}
	if patch.Password != nil && *patch.Password == "" {
		errs["password"] = "Password cannot be empty"
	}
	if patch.SoilPH != nil && patch.SoilPH.present() {
		checkSoilPH(errs, *patch.SoilPH)
	}
	return errs
}

func checkEmail(errs FieldErrors, email string) {
	if !emailPattern.MatchString(email) {
		errs["email"] = "Please enter a valid email address"
	}
}

func checkMobile(errs FieldErrors, mobile string) {
	if !mobilePattern.MatchString(whitespace.ReplaceAllString(mobile, "")) {
		errs["mobile"] = "Please enter a valid mobile number"
	}
}

func checkSoilPH(errs FieldErrors, value FormValue) {
	ph, ok := value.float()
	if !ok {
		errs["soilPH"] = "pH must be a number"
		return
	}
	if ph < minSoilPH || ph > maxSoilPH {
		errs["soilPH"] = "pH should be between 0-14"
	}
}
