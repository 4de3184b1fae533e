// SPDX-FileCopyrightText: Copyright (c) 2016-2023, CloudZero, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferedWriter(t *testing.T) {
	out := &bytes.Buffer{}
	bw := NewBufferedWriter(out).(*BufferedWriter)

	bw.Write([]byte("one\n"))
	assert.Equal(t, "one\n", out.String())

	// while paused, writes are held back
	bw.Pause()
	bw.Write([]byte("two\n"))
	assert.Equal(t, "one\n", out.String())

	// resume flushes everything that was buffered
	bw.Resume()
	assert.Equal(t, "one\ntwo\n", out.String())

	bw.Write([]byte("three\n"))
	assert.Equal(t, "one\ntwo\nthree\n", out.String())
}

func TestBufferedWriterResumeWithoutPause(t *testing.T) {
	out := &bytes.Buffer{}
	bw := NewBufferedWriter(out).(*BufferedWriter)

	bw.Resume()
	bw.Write([]byte("direct\n"))
	assert.Equal(t, "direct\n", out.String())
}
