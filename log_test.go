//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package transfer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransferLogs(t *testing.T) {
	srv := serveBytes(t, makePayload(2048), nil)
	var out bytes.Buffer
	config := testConfig(t)
	config.Logger = slog.New(slog.NewJSONHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tr, err := New(srv.URL+"/file.bin?sig=secret", "", true, nil, config)
	require.NoError(t, err)
	require.Equal(t, Succeeded, tr.Run().Outcome)

	var complete map[string]any
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		require.NotContains(t, entry["url"], "secret")
		if entry["msg"] == "transfer complete" {
			complete = entry
		}
	}
	require.NotNil(t, complete)
	require.Equal(t, tr.ID, complete["transfer_id"])
	require.Equal(t, map[string]any{"bytes": float64(2048), "human": "2.0 KiB"}, complete["downloaded"])
}

func TestStrings(t *testing.T) {
	require.Equal(t, "streaming", StateStreaming.String())
	require.Equal(t, "done", StateDone.String())
	require.Equal(t, "cancelled", Cancelled.String())
	require.Equal(t, "failed", Failed.String())
	require.Equal(t, "unknown", Outcome(42).String())
}
