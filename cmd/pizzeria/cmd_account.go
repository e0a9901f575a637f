package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/itsneelabh/pizzeria"
)

func newSignupCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "signup <username> <password>",
		Short: "Create an account and log in",
		Args:  cobra.ExactArgs(2),
		RunE: storefrontRunE(g, func(ctx context.Context, cmd *cobra.Command, sf *pizzeria.Storefront, args []string) error {
			if err := sf.Session.Signup(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s!\n", sf.Session.CurrentUser())
			return nil
		}),
	}
}

func newLoginCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "login <username> <password>",
		Short: "Log in; your cart and favorites are restored",
		Args:  cobra.ExactArgs(2),
		RunE: storefrontRunE(g, func(ctx context.Context, cmd *cobra.Command, sf *pizzeria.Storefront, args []string) error {
			if err := sf.Session.Login(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%d item(s) in cart)\n",
				sf.Session.CurrentUser(), sf.Cart.TotalQuantity())
			return nil
		}),
	}
}

func newLogoutCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out; the saved cart stays with the account",
		Args:  cobra.NoArgs,
		RunE: storefrontRunE(g, func(ctx context.Context, cmd *cobra.Command, sf *pizzeria.Storefront, _ []string) error {
			if !sf.Session.IsLoggedIn() {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
				return nil
			}
			user := sf.Session.CurrentUser()
			sf.Session.Logout(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "Goodbye, %s.\n", user)
			return nil
		}),
	}
}

func newWhoamiCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: storefrontRunE(g, func(_ context.Context, cmd *cobra.Command, sf *pizzeria.Storefront, _ []string) error {
			if !sf.Session.IsLoggedIn() {
				fmt.Fprintln(cmd.OutOrStdout(), "guest")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), sf.Session.CurrentUser())
			return nil
		}),
	}
}
