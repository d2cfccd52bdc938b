package main

import (
	"fmt"
	"strings"

	"github.com/Kotlang/fasalneetiGo/models"
	"github.com/Kotlang/fasalneetiGo/outbox"
	"github.com/Kotlang/fasalneetiGo/service"
	"github.com/spf13/cobra"
)

var registerReq service.FarmerRequest

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a farmer, queueing it locally when the API is unreachable",
	Args:  cobra.NoArgs,
	RunE:  runRegister,
}

var loginReq service.LoginRequest

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in as a farmer and print the issued token",
	Args:  cobra.NoArgs,
	RunE:  runLogin,
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Read or change a farmer profile",
}

var profileGetCmd = &cobra.Command{
	Use:   "get <farmerId>",
	Short: "Print a farmer profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileGet,
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update <farmerId>",
	Short: "Change the profile fields given as flags",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileUpdate,
}

var cropsCmd = &cobra.Command{
	Use:   "crops",
	Short: "Manage crop history",
}

var cropsAddCmd = &cobra.Command{
	Use:   "add <farmerId> key=value...",
	Short: "Append a crop entry built from key=value pairs",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runCropsAdd,
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard <farmerId>",
	Short: "Print the crops recorded for a farmer",
	Args:  cobra.ExactArgs(1),
	RunE:  runDashboard,
}

// profile flags, by json field name.
var profileFlags = []struct {
	flag  string
	field string
	usage string
}{
	{"name", "name", "Full name"},
	{"email", "email", "Email address"},
	{"mobile", "mobile", "Mobile number"},
	{"location", "location", "Village or district"},
	{"password", "password", "Login password"},
	{"farm-size", "farmSize", "Farm size"},
	{"soil-type", "soilType", "Soil type"},
	{"soil-ph", "soilPH", "Soil pH between 0 and 14"},
	{"last-crop", "lastCrop", "Last crop grown"},
	{"irrigation", "irrigationType", "Irrigation type"},
	{"fertilizer", "fertilizerUsage", "Fertilizer usage"},
	{"pesticides", "pesticidesUsed", "Pesticides used"},
	{"experience", "farmingExperience", "Years of farming experience"},
}

var profileUpdateValues = map[string]*string{}

func init() {
	for _, f := range profileFlags {
		registerCmd.Flags().StringVar(registerField(f.field), f.flag, "", f.usage)

		value := new(string)
		profileUpdateValues[f.field] = value
		profileUpdateCmd.Flags().StringVar(value, f.flag, "", f.usage)
	}

	loginCmd.Flags().StringVar(&loginReq.Email, "email", "", "Email address")
	loginCmd.Flags().StringVar(&loginReq.Password, "password", "", "Login password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")

	profileCmd.AddCommand(profileGetCmd, profileUpdateCmd)
	cropsCmd.AddCommand(cropsAddCmd)
}

func registerField(field string) *string {
	switch field {
	case "name":
		return &registerReq.Name
	case "email":
		return &registerReq.Email
	case "mobile":
		return &registerReq.Mobile
	case "location":
		return &registerReq.Location
	case "password":
		return &registerReq.Password
	case "farmSize":
		return (*string)(&registerReq.FarmSize)
	case "soilType":
		return &registerReq.SoilType
	case "soilPH":
		return (*string)(&registerReq.SoilPH)
	case "lastCrop":
		return &registerReq.LastCrop
	case "irrigationType":
		return &registerReq.IrrigationType
	case "fertilizerUsage":
		return &registerReq.FertilizerUsage
	case "pesticidesUsed":
		return &registerReq.PesticidesUsed
	case "farmingExperience":
		return (*string)(&registerReq.FarmingExperience)
	}
	panic("unknown profile field " + field)
}

func runRegister(cmd *cobra.Command, args []string) error {
	store, err := openOutbox()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := withTimeout(cmd)
	defer cancel()

	res, err := outbox.NewRegistrar(newClient(), store).Register(ctx, &registerReq)
	if err != nil {
		return err
	}
	return printJSON(cmd, res)
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx, cancel := withTimeout(cmd)
	defer cancel()

	res, err := newClient().Login(ctx, &loginReq)
	if err != nil {
		return err
	}
	return printJSON(cmd, res)
}

func runProfileGet(cmd *cobra.Command, args []string) error {
	ctx, cancel := withTimeout(cmd)
	defer cancel()

	profile, err := newClient().GetProfile(ctx, args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd, profile)
}

func runProfileUpdate(cmd *cobra.Command, args []string) error {
	patch := &service.FarmerPatch{}
	changed := 0
	for _, f := range profileFlags {
		if !cmd.Flags().Changed(f.flag) {
			continue
		}
		setPatchField(patch, f.field, *profileUpdateValues[f.field])
		changed++
	}
	if changed == 0 {
		return fmt.Errorf("nothing to update, pass at least one field flag")
	}

	ctx, cancel := withTimeout(cmd)
	defer cancel()

	updated, err := newClient().UpdateProfile(ctx, args[0], patch)
	if err != nil {
		return err
	}
	return printJSON(cmd, map[string]int64{"updated": updated})
}

func setPatchField(patch *service.FarmerPatch, field, value string) {
	form := service.FormValue(value)
	switch field {
	case "name":
		patch.Name = &value
	case "email":
		patch.Email = &value
	case "mobile":
		patch.Mobile = &value
	case "location":
		patch.Location = &value
	case "password":
		patch.Password = &value
	case "farmSize":
		patch.FarmSize = &form
	case "soilType":
		patch.SoilType = &value
	case "soilPH":
		patch.SoilPH = &form
	case "lastCrop":
		patch.LastCrop = &value
	case "irrigationType":
		patch.IrrigationType = &value
	case "fertilizerUsage":
		patch.FertilizerUsage = &value
	case "pesticidesUsed":
		patch.PesticidesUsed = &value
	case "farmingExperience":
		patch.FarmingExperience = &form
	}
}

func parseCropEntry(pairs []string) (models.CropEntry, error) {
	entry := models.CropEntry{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}
		entry[strings.TrimSpace(key)] = value
	}
	return entry, nil
}

func runCropsAdd(cmd *cobra.Command, args []string) error {
	entry, err := parseCropEntry(args[1:])
	if err != nil {
		return err
	}

	ctx, cancel := withTimeout(cmd)
	defer cancel()

	updated, err := newClient().AppendCrop(ctx, args[0], entry)
	if err != nil {
		return err
	}
	return printJSON(cmd, map[string]int64{"updated": updated})
}

func runDashboard(cmd *cobra.Command, args []string) error {
	ctx, cancel := withTimeout(cmd)
	defer cancel()

	dashboard, err := newClient().GetDashboard(ctx, args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd, dashboard)
}
