// SPDX-FileCopyrightText: Copyright (c) 2016-2023, CloudZero, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/cloudzero/azure-advisor-insights/azure"
	"github.com/cloudzero/azure-advisor-insights/azure/auth"
	"github.com/cloudzero/azure-advisor-insights/cli/config"
	"github.com/cloudzero/azure-advisor-insights/cloudzero"
	"github.com/cloudzero/azure-advisor-insights/logger"
	"github.com/cloudzero/azure-advisor-insights/shuttle"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const rootCmdDesc = "azure-advisor-insights pulls Azure Advisor cost recommendations and ships them to CloudZero\n"

// rootCmd represents the base command. The tool is a one-shot shuttle, so the
// root command performs the whole pull/transform/push cycle and exits.
var rootCmd = &cobra.Command{
	Use:   "azure-advisor-insights",
	Short: "Ship Azure Advisor cost recommendations to CloudZero",
	Long:  rootCmdDesc,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogger(cmd)
	},
	RunE: runShuttle,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// replace default zerolog output before anything gets logged
	logger.CliCompactLogger(logger.LogOutputWriter)
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("log-level", "info", "set log-level: error, warn, info, debug, trace")
	rootCmd.PersistentFlags().String("api-endpoint", "https://api.cloudzero.com", "CloudZero API endpoint")
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("api-endpoint", rootCmd.PersistentFlags().Lookup("api-endpoint"))

	// the action flags are persistent so that both the bare invocation and
	// the run subcommand accept them with a single viper binding
	rootCmd.PersistentFlags().Bool("transmit", false, "Transmit insights to CloudZero")
	rootCmd.PersistentFlags().Bool("export-csv", false, "Export recommendations to a CSV file")
	rootCmd.PersistentFlags().String("output-dir", "output", "Directory the CSV export is written to")
	rootCmd.PersistentFlags().StringSlice("subscriptions", nil, "Only pull from these subscription ids")
	rootCmd.PersistentFlags().StringSlice("exclude-subscriptions", nil, "Skip these subscription ids")
	viper.BindPFlag("transmit", rootCmd.PersistentFlags().Lookup("transmit"))
	viper.BindPFlag("export-csv", rootCmd.PersistentFlags().Lookup("export-csv"))
	viper.BindPFlag("output-dir", rootCmd.PersistentFlags().Lookup("output-dir"))
	viper.BindPFlag("subscriptions", rootCmd.PersistentFlags().Lookup("subscriptions"))
	viper.BindPFlag("exclude-subscriptions", rootCmd.PersistentFlags().Lookup("exclude-subscriptions"))

	rootCmd.AddCommand(runCmd)

	config.Init(rootCmd)
}

// runCmd is the explicit spelling of the default action
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one pull/transform/push cycle",
	RunE:  runShuttle,
}

func initLogger(cmd *cobra.Command) {
	// environment variables always over-write custom flags
	envLevel, ok := logger.GetEnvLogLevel()
	if ok {
		logger.Set(envLevel)
		return
	}

	// retrieve log-level from flags
	level := viper.GetString("log-level")
	if v := viper.GetBool("verbose"); v {
		level = "debug"
	}
	logger.Set(level)
}

func runShuttle(cmd *cobra.Command, args []string) error {
	config.DisplayUsedConfig()

	opts, err := config.Read()
	if err != nil {
		return err
	}

	transmit := viper.GetBool("transmit")
	exportCSV := viper.GetBool("export-csv")
	if err := opts.Validate(transmit); err != nil {
		return err
	}

	cred, err := auth.GetTokenCredential(opts.Azure.TenantID, opts.Azure.ClientID, opts.Azure.ClientSecret)
	if err != nil {
		return errors.Wrap(err, "could not resolve azure credentials")
	}

	s := shuttle.New(
		azure.NewSubscriptionsClient(cred),
		azure.NewAdvisorClient(cred),
		cloudzero.NewClient(opts.APIEndpoint, opts.APIKey),
	)

	summary, err := s.Run(cmd.Context(), shuttle.Options{
		Transmit:  transmit,
		ExportCSV: exportCSV,
		OutputDir: opts.OutputDir,
		Filter: azure.SubscriptionsFilter{
			Include: opts.Subscriptions,
			Exclude: opts.ExcludeSubscriptions,
		},
	})
	if err != nil {
		return err
	}

	log.Info().
		Int("subscriptions", summary.Subscriptions).
		Int("recommendations", summary.Recommendations).
		Int("created", summary.Created).
		Int("failed", summary.Failed).
		Msg("done")
	return nil
}
