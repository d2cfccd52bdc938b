package service

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() *FarmerRequest {
	return &FarmerRequest{
		Name:           "A",
		Email:          "a@b.com",
		Mobile:         "+911234567890",
		Location:       "X",
		SoilType:       "Clay",
		LastCrop:       "Wheat",
		IrrigationType: "Drip",
		FarmSize:       "2 acres",
	}
}

func TestValidateFarmerRequest(t *testing.T) {
	var validationTestCases = []struct {
		desc          string
		mutate        func(*FarmerRequest)
		expectedField string
	}{
		{desc: "valid request", mutate: func(r *FarmerRequest) {}},
		{desc: "empty name", mutate: func(r *FarmerRequest) { r.Name = "" }, expectedField: "name"},
		{desc: "blank name", mutate: func(r *FarmerRequest) { r.Name = "   " }, expectedField: "name"},
		{desc: "email without tld", mutate: func(r *FarmerRequest) { r.Email = "foo@bar" }, expectedField: "email"},
		{desc: "email with space", mutate: func(r *FarmerRequest) { r.Email = "a b@c.com" }, expectedField: "email"},
		{desc: "short mobile", mutate: func(r *FarmerRequest) { r.Mobile = "123" }, expectedField: "mobile"},
		{desc: "mobile with letters", mutate: func(r *FarmerRequest) { r.Mobile = "98765abc10" }, expectedField: "mobile"},
		{desc: "mobile too long", mutate: func(r *FarmerRequest) { r.Mobile = "+91987654321012" }, expectedField: "mobile"},
		{desc: "mobile with plus", mutate: func(r *FarmerRequest) { r.Mobile = "+919876543210" }},
		{desc: "mobile with spaces", mutate: func(r *FarmerRequest) { r.Mobile = "+91 98765 43210" }},
		{desc: "ten digit mobile", mutate: func(r *FarmerRequest) { r.Mobile = "9876543210" }},
		{desc: "soil pH above range", mutate: func(r *FarmerRequest) { r.SoilPH = "15" }, expectedField: "soilPH"},
		{desc: "soil pH below range", mutate: func(r *FarmerRequest) { r.SoilPH = "-0.5" }, expectedField: "soilPH"},
		{desc: "soil pH not a number", mutate: func(r *FarmerRequest) { r.SoilPH = "acidic" }, expectedField: "soilPH"},
		{desc: "soil pH in range", mutate: func(r *FarmerRequest) { r.SoilPH = "6.8" }},
		{desc: "soil pH bounds", mutate: func(r *FarmerRequest) { r.SoilPH = "14" }},
		{desc: "missing soil type", mutate: func(r *FarmerRequest) { r.SoilType = "" }, expectedField: "soilType"},
		{desc: "missing last crop", mutate: func(r *FarmerRequest) { r.LastCrop = "" }, expectedField: "lastCrop"},
		{desc: "missing irrigation type", mutate: func(r *FarmerRequest) { r.IrrigationType = "" }, expectedField: "irrigationType"},
		{desc: "missing farm size", mutate: func(r *FarmerRequest) { r.FarmSize = "" }, expectedField: "farmSize"},
		{desc: "missing location", mutate: func(r *FarmerRequest) { r.Location = "" }, expectedField: "location"},
	}

	for _, testData := range validationTestCases {
		t.Run(testData.desc, func(t *testing.T) {
			req := validRequest()
			testData.mutate(req)

			errs := ValidateFarmerRequest(req)
			if testData.expectedField == "" {
				assert.Empty(t, errs)
				return
			}
			assert.Len(t, errs, 1)
			assert.Contains(t, errs, testData.expectedField)
		})
	}
}

func TestValidateFarmerRequestReportsEveryField(t *testing.T) {
	errs := ValidateFarmerRequest(&FarmerRequest{Email: "foo@bar", SoilPH: "15"})

	assert.Equal(t, "Please enter a valid email address", errs["email"])
	assert.Equal(t, "pH should be between 0-14", errs["soilPH"])
	assert.Equal(t, "Name is required", errs["name"])
	assert.Equal(t, "Mobile number is required", errs["mobile"])
	assert.Len(t, errs, 9)

	assert.Contains(t, ValidateFarmerRequest(nil), "body")
}

func TestValidateFarmerPatch(t *testing.T) {
	str := func(s string) *string { return &s }
	form := func(s string) *FormValue { v := FormValue(s); return &v }

	assert.Empty(t, ValidateFarmerPatch(nil))
	assert.Empty(t, ValidateFarmerPatch(&FarmerPatch{}))
	assert.Empty(t, ValidateFarmerPatch(&FarmerPatch{Location: str("Y"), SoilPH: form("7.2")}))
	// an empty pH clears the reading.
	assert.Empty(t, ValidateFarmerPatch(&FarmerPatch{SoilPH: form("")}))

	errs := ValidateFarmerPatch(&FarmerPatch{
		Name:     str(" "),
		Email:    str("foo@bar"),
		Mobile:   str("123"),
		SoilPH:   form("15"),
		Password: str(""),
		FarmSize: form(""),
	})
	assert.Equal(t, FieldErrors{
		"name":     "Name is required",
		"email":    "Please enter a valid email address",
		"mobile":   "Please enter a valid mobile number",
		"soilPH":   "pH should be between 0-14",
		"password": "Password cannot be empty",
		"farmSize": "Farm size is required",
	}, errs)
}

func TestFormValueAcceptsStringsAndNumbers(t *testing.T) {
	var req FarmerRequest
	require.NoError(t, json.Unmarshal([]byte(`{"soilPH": 6.8, "farmSize": "2 acres", "farmingExperience": 12}`), &req))
	assert.Equal(t, FormValue("6.8"), req.SoilPH)
	assert.Equal(t, FormValue("2 acres"), req.FarmSize)
	assert.Equal(t, FormValue("12"), req.FarmingExperience)

	require.NoError(t, json.Unmarshal([]byte(`{"soilPH": null, "farmSize": ""}`), &req))
	assert.Equal(t, FormValue(""), req.SoilPH)

	assert.Error(t, json.Unmarshal([]byte(`{"soilPH": true}`), &req))

	ph, ok := FormValue(" 7.5 ").float()
	assert.True(t, ok)
	assert.Equal(t, 7.5, ph)
	_, ok = FormValue("NaN").float()
	assert.False(t, ok)
}

func TestValidationErrorStatus(t *testing.T) {
	err := asError(FieldErrors{"name": "Name is required", "email": "Email is required"})
	require.Error(t, err)
	assert.Equal(t, "Validation failed: email, name", err.Error())
	assert.Nil(t, asError(FieldErrors{}))
}

func TestValidateClientRefLength(t *testing.T) {
	req := validRequest()
	req.ClientRef = strings.Repeat("r", 65)
	assert.Equal(t, "Client reference is too long", ValidateFarmerRequest(req)["clientRef"])

	req.ClientRef = strings.Repeat("r", 64)
	assert.Empty(t, ValidateFarmerRequest(req))
}
