// SPDX-FileCopyrightText: Copyright (c) 2016-2023, CloudZero, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/cloudzero/azure-advisor-insights/apps/azure-advisor-insights/cmd"
)

func main() {
	cmd.Execute()
}
