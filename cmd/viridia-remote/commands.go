package main

import (
	"fmt"
	"strings"

	"github.com/teslashibe/go-viridia/pkg/input"
	"github.com/teslashibe/go-viridia/pkg/web"
)

type command struct {
	msg    web.InputMessage
	status bool
}

// stickKeys maps a key to the axis it deflects and the direction.
var stickKeys = map[string]struct {
	axis string
	sign float64
}{
	"w": {input.AxisLeftY, 1},
	"s": {input.AxisLeftY, -1},
	"a": {input.AxisLeftX, -1},
	"d": {input.AxisLeftX, 1},
	"q": {input.AxisRightX, -1},
	"e": {input.AxisRightX, 1},
}

// parse turns one line of terminal input into a command.
func parse(line string, speed float64) (command, error) {
	word := strings.ToLower(strings.TrimSpace(line))

	switch {
	case word == "", word == "stop":
		return command{msg: web.InputMessage{Type: web.InputCenter}}, nil
	case word == "status":
		return command{status: true}, nil
	case input.IsButton(word):
		return command{msg: web.InputMessage{Type: web.InputPress, Button: word}}, nil
	}

	if k, ok := stickKeys[word]; ok {
		return command{msg: web.InputMessage{
			Type: web.InputAxes,
			Axes: map[string]float64{k.axis: k.sign * speed},
		}}, nil
	}
	return command{}, fmt.Errorf("unknown command %q", word)
}
