package cmd

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"tastymetrics/internal/config"
	"tastymetrics/internal/snowflake"
	"tastymetrics/pkg/models"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure a Snowflake connection profile",
	Run:   runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) {
	fmt.Println("Setting up tastymetrics...")
	fmt.Println()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	var answers struct {
		Name      string
		Account   string
		Username  string
		Password  string
		Role      string
		Warehouse string
		Database  string
		Schema    string
	}

	questions := []*survey.Question{
		{
			Name:     "name",
			Prompt:   &survey.Input{Message: "Profile name:", Default: "default"},
			Validate: survey.Required,
		},
		{
			Name:     "account",
			Prompt:   &survey.Input{Message: "Snowflake Account (e.g., xy12345.us-east-1):"},
			Validate: survey.Required,
		},
		{
			Name:     "username",
			Prompt:   &survey.Input{Message: "Username:"},
			Validate: survey.Required,
		},
		{
			Name:     "password",
			Prompt:   &survey.Password{Message: "Password:"},
			Validate: survey.Required,
		},
		{
			Name:     "role",
			Prompt:   &survey.Input{Message: "Role:", Default: "SYSADMIN"},
			Validate: survey.Required,
		},
		{
			Name:     "warehouse",
			Prompt:   &survey.Input{Message: "Warehouse:", Default: "COMPUTE_WH"},
			Validate: survey.Required,
		},
		{
			Name:     "database",
			Prompt:   &survey.Input{Message: "Database:", Default: "TASTY_BYTES_SAMPLE_DATA"},
			Validate: survey.Required,
		},
		{
			Name:     "schema",
			Prompt:   &survey.Input{Message: "Schema:", Default: "ANALYTICS"},
			Validate: survey.Required,
		},
	}

	if err := survey.Ask(questions, &answers); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	profile := models.Profile{
		Name:      answers.Name,
		Account:   answers.Account,
		Username:  answers.Username,
		Role:      answers.Role,
		Warehouse: answers.Warehouse,
		Database:  answers.Database,
		Schema:    answers.Schema,
	}

	if err := config.StorePassword(&profile, answers.Password); err != nil {
		fmt.Printf("Error storing password: %v\n", err)
		os.Exit(1)
	}

	var testConn bool
	if err := survey.AskOne(&survey.Confirm{
		Message: "Test the connection now?",
		Default: true,
	}, &testConn); err == nil && testConn {
		svc := snowflake.NewService(snowflake.ConfigFromProfile(profile, answers.Password))
		if err := svc.TestConnection(); err != nil {
			fmt.Printf("Connection test failed: %v\n", err)
			var keep bool
			_ = survey.AskOne(&survey.Confirm{
				Message: "Save the profile anyway?",
				Default: false,
			}, &keep)
			if !keep {
				fmt.Println("Setup cancelled.")
				return
			}
		} else {
			fmt.Println("Connection OK.")
			_ = svc.Close()
		}
	}

	cfg.UpsertProfile(profile)
	if cfg.DefaultProfile == "" {
		cfg.DefaultProfile = profile.Name
	} else if cfg.DefaultProfile != profile.Name {
		var makeDefault bool
		_ = survey.AskOne(&survey.Confirm{
			Message: fmt.Sprintf("Make %q the default profile?", profile.Name),
			Default: false,
		}, &makeDefault)
		if makeDefault {
			cfg.DefaultProfile = profile.Name
		}
	}

	if err := config.Save(cfg); err != nil {
		fmt.Printf("Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nProfile %q saved. Try: tastymetrics catalog list\n", profile.Name)
}
