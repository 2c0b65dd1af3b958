package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cory-johannsen/armory/internal/game/clock"
	"github.com/cory-johannsen/armory/internal/game/inventory"
)

const consoleHelp = `commands:
  equip <pistol|rifle>   draw a weapon
  unequip                holster the weapon in hand
  fire | stop            press or release the trigger
  reload                 reload the weapon in hand
  pickup <type> <n>      pick up n rounds for a weapon type
  look <yaw> <pitch>     turn the view (degrees)
  status                 show weapon, ammo and range counters
  log <level>            change log verbosity
  quit                   save and exit`

// Console reads commands from in and runs them on the clock goroutine.
type Console struct {
	sim      *Sim
	loop     *clock.Loop
	in       io.Reader
	out      io.Writer
	setLevel func(string) error
}

// NewConsole returns a Console. setLevel may be nil.
func NewConsole(sim *Sim, loop *clock.Loop, in io.Reader, out io.Writer, setLevel func(string) error) *Console {
	return &Console{sim: sim, loop: loop, in: in, out: out, setLevel: setLevel}
}

// Start reads lines until quit, EOF or ctx is cancelled. It implements
// server.Service.
func (c *Console) Start(ctx context.Context) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(c.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
		close(lines)
	}()

	fmt.Fprintln(c.out, "armory ready; type 'help' for commands")
	for {
		fmt.Fprint(c.out, "> ")
		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			line = l
		}

		var reply string
		var quit bool
		err := c.loop.Post(ctx, func() { reply, quit = c.Execute(line) })
		if errors.Is(err, clock.ErrLoopStopped) || errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return err
		}
		if reply != "" {
			fmt.Fprintln(c.out, reply)
		}
		if quit {
			return nil
		}
	}
}

// Stop is a no-op; Start returns when its context is cancelled.
func (c *Console) Stop() {}

// Execute runs one command line and returns the reply and whether the
// console should exit. It must run on the clock goroutine.
func (c *Console) Execute(line string) (reply string, quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	a := c.sim.Arsenal()

	switch cmd {
	case "help", "?":
		return consoleHelp, false
	case "quit", "exit":
		return "bye", true
	case "equip":
		if len(args) != 1 {
			return "usage: equip <pistol|rifle>", false
		}
		t, err := parseType(args[0])
		if err != nil {
			return err.Error(), false
		}
		if err := a.Equip(t); err != nil {
			return err.Error(), false
		}
		return fmt.Sprintf("drew %s", a.Current().Def().Name), false
	case "unequip":
		if a.Current() == nil {
			return "nothing in hand", false
		}
		a.Unequip()
		return "holstered", false
	case "fire":
		if a.Current() == nil {
			return "nothing in hand", false
		}
		a.StartFire()
		return "", false
	case "stop":
		a.StopFire()
		return "", false
	case "reload":
		if a.Reload() {
			return "reloading", false
		}
		return "cannot reload", false
	case "pickup":
		if len(args) != 2 {
			return "usage: pickup <type> <n>", false
		}
		t, err := parseType(args[0])
		if err != nil {
			return err.Error(), false
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			return fmt.Sprintf("invalid amount %q", args[1]), false
		}
		taken := a.PickupAmmo(inventory.AmmoPickup{Type: t, Amount: n})
		if taken == 0 {
			return "pickup left on the ground", false
		}
		return fmt.Sprintf("took %d rounds", taken), false
	case "look":
		if len(args) != 2 {
			return "usage: look <yaw> <pitch>", false
		}
		yaw, err1 := strconv.ParseFloat(args[0], 64)
		pitch, err2 := strconv.ParseFloat(args[1], 64)
		if err1 != nil || err2 != nil {
			return "yaw and pitch must be numbers", false
		}
		c.sim.Avatar().Look(yaw, pitch)
		v := c.sim.Avatar().View()
		return fmt.Sprintf("looking yaw %.1f pitch %.1f", v.Yaw, v.Pitch), false
	case "status":
		return formatStatus(c.sim.Status()), false
	case "log":
		if len(args) != 1 || c.setLevel == nil {
			return "usage: log <debug|info|warn|error>", false
		}
		if err := c.setLevel(args[0]); err != nil {
			return err.Error(), false
		}
		return "log level " + args[0], false
	default:
		return fmt.Sprintf("unknown command %q; type 'help'", cmd), false
	}
}

func formatStatus(st Status) string {
	var b strings.Builder
	fmt.Fprintf(&b, "t=%s weapon=%s", st.Now, st.Weapon)
	if st.Weapon != "none" {
		fmt.Fprintf(&b, " state=%s ammo=%d/%d", st.State, st.Magazine, st.Total)
	}
	fmt.Fprintf(&b, " view=%.1f,%.1f shots=%d out_of_ammo=%d in_flight=%d impacts=%d",
		st.Yaw, st.Pitch, st.Shots, st.OutOfAmmo, st.InFlight, st.Impacts)
	if st.LastImpact != nil {
		p := st.LastImpact.Point
		fmt.Fprintf(&b, " last_impact=(%.0f,%.0f,%.0f)", p.X, p.Y, p.Z)
	}
	return b.String()
}
