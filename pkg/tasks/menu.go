// Package tasks holds the robot's user-facing behaviors: the top level menu,
// joystick driving, line following and the two odometry calibrations.
package tasks

import (
	"errors"
	"fmt"

	"github.com/teslashibe/go-viridia/pkg/input"
	"github.com/teslashibe/go-viridia/pkg/robot"
	"github.com/teslashibe/go-viridia/pkg/task"
)

var errNoDrive = errors.New("no drive configured")

// Menu lets the user pick a behavior with the d-pad and start it with cross.
type Menu struct {
	task.Base
	tasks    []task.Task
	selected int
}

// NewMenu creates a menu over tasks, in display order.
func NewMenu(tasks ...task.Task) *Menu {
	return &Menu{Base: task.NewBase("Menu"), tasks: tasks}
}

// Selected returns the index of the highlighted task.
func (m *Menu) Selected() int { return m.selected }

// Init idles the lights and makes sure the wheels are off.
func (m *Menu) Init(ctx *task.Context) error {
	if ctx.Lights != nil {
		if err := ctx.Lights.SetMode(robot.LightsIdle); err != nil {
			return err
		}
		if err := ctx.Lights.SetHue(robot.HueGreen, robot.DefaultHueSpread); err != nil {
			return err
		}
	}
	if ctx.Motors != nil {
		return ctx.Motors.Disable()
	}
	return nil
}

// Poll implements task.Task.
func (m *Menu) Poll(ctx *task.Context, _ int) (task.Task, error) {
	if len(m.tasks) == 0 {
		ctx.Show("Menu", "No tasks")
		return nil, nil
	}

	switch {
	case ctx.Pressed(input.ButtonLeft):
		m.move(-1)
	case ctx.Pressed(input.ButtonRight):
		m.move(1)
	case ctx.Pressed(input.ButtonCross):
		return task.ClearState(m.tasks[m.selected]), nil
	}

	ctx.Show(fmt.Sprintf("Task %d of %d", m.selected+1, len(m.tasks)), m.tasks[m.selected].Name())
	return nil, nil
}

func (m *Menu) move(delta int) {
	n := len(m.tasks)
	m.selected = ((m.selected+delta)%n + n) % n
}
