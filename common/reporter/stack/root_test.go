// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package stack_test

import (
	"strings"
	"testing"

	"netflowd/common/helpers"
	"netflowd/common/reporter/stack"
)

func TestSourceFile(t *testing.T) {
	callers := stack.Callers()
	got := []string{}
	for _, caller := range callers[:len(callers)-1] {
		got = append(got, caller.SourceFile(false))
	}
	expected := []string{
		"netflowd/common/reporter/stack/root_test.go",
		"testing/testing.go",
	}
	if diff := helpers.Diff(got, expected); diff != "" {
		t.Fatalf("SourceFile() (-got, +want):\n%s", diff)
	}
}

func TestSourceFileWithLine(t *testing.T) {
	got := stack.Callers()[0].SourceFile(true)
	if !strings.HasPrefix(got, "netflowd/common/reporter/stack/root_test.go:") {
		t.Fatalf("SourceFile(true) == %q", got)
	}
}

func TestFunctionName(t *testing.T) {
	callers := stack.Callers()
	got := []string{}
	for _, caller := range callers[:len(callers)-1] {
		got = append(got, caller.FunctionName())
	}
	expected := []string{
		"netflowd/common/reporter/stack_test.TestFunctionName",
		"testing.tRunner",
	}
	if diff := helpers.Diff(got, expected); diff != "" {
		t.Fatalf("FunctionName() (-got, +want):\n%s", diff)
	}
}

func TestModuleName(t *testing.T) {
	if stack.ModuleName != "netflowd" {
		t.Fatalf("ModuleName == %q, expected %q", stack.ModuleName, "netflowd")
	}
}
