// SPDX-FileCopyrightText: Copyright (c) 2016-2023, CloudZero, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	insights "github.com/cloudzero/azure-advisor-insights"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the version and build of the tool",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(insights.GetVersion() + " (" + insights.GetBuild() + ")")
	},
}
