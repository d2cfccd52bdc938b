package main

import (
	"github.com/Kotlang/fasalneetiGo/service"
	"github.com/spf13/cobra"
)

var (
	adminLoginReq service.AdminLoginRequest
	listPage      int64
	listSize      int64
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrative commands, most need an admin --token",
}

var adminLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in as the administrator and print the issued token",
	Args:  cobra.NoArgs,
	RunE:  runAdminLogin,
}

var adminListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered farmers",
	Args:  cobra.NoArgs,
	RunE:  runAdminList,
}

var adminDeleteCmd = &cobra.Command{
	Use:   "delete <farmerId>",
	Short: "Delete a farmer",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdminDelete,
}

func init() {
	adminLoginCmd.Flags().StringVar(&adminLoginReq.Username, "username", "admin", "Admin username")
	adminLoginCmd.Flags().StringVar(&adminLoginReq.Password, "password", "", "Admin password")
	_ = adminLoginCmd.MarkFlagRequired("password")

	adminListCmd.Flags().Int64Var(&listPage, "page", 0, "Page number, from 0")
	adminListCmd.Flags().Int64Var(&listSize, "size", 0, "Page size, 0 lists everything")

	adminCmd.AddCommand(adminLoginCmd, adminListCmd, adminDeleteCmd)
}

func runAdminLogin(cmd *cobra.Command, args []string) error {
	ctx, cancel := withTimeout(cmd)
	defer cancel()

	res, err := newClient().AdminLogin(ctx, &adminLoginReq)
	if err != nil {
		return err
	}
	return printJSON(cmd, res)
}

func runAdminList(cmd *cobra.Command, args []string) error {
	ctx, cancel := withTimeout(cmd)
	defer cancel()

	page, err := newClient().ListFarmers(ctx, listPage, listSize)
	if err != nil {
		return err
	}
	return printJSON(cmd, page)
}

func runAdminDelete(cmd *cobra.Command, args []string) error {
	ctx, cancel := withTimeout(cmd)
	defer cancel()

	deleted, err := newClient().DeleteFarmer(ctx, args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd, map[string]int64{"deleted": deleted})
}
