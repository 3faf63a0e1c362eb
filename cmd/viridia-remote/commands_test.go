package main

import (
	"testing"

	"github.com/teslashibe/go-viridia/pkg/web"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line     string
		wantType string
		axis     string
		value    float64
		button   string
		status   bool
		wantErr  bool
	}{
		{line: "cross", wantType: web.InputPress, button: "cross"},
		{line: "  HOME ", wantType: web.InputPress, button: "home"},
		{line: "w", wantType: web.InputAxes, axis: "ly", value: 0.5},
		{line: "a", wantType: web.InputAxes, axis: "lx", value: -0.5},
		{line: "e", wantType: web.InputAxes, axis: "rx", value: 0.5},
		{line: "", wantType: web.InputCenter},
		{line: "stop", wantType: web.InputCenter},
		{line: "status", status: true},
		{line: "jump", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.line, func(t *testing.T) {
			cmd, err := parse(tc.line, 0.5)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v", err)
			}
			if tc.wantErr {
				return
			}
			if cmd.status != tc.status || cmd.msg.Type != tc.wantType {
				t.Fatalf("got %+v", cmd)
			}
			if tc.button != "" && cmd.msg.Button != tc.button {
				t.Errorf("button = %q", cmd.msg.Button)
			}
			if tc.axis != "" && cmd.msg.Axes[tc.axis] != tc.value {
				t.Errorf("axes = %v", cmd.msg.Axes)
			}
		})
	}
}
