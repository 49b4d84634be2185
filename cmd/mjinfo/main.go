// Command mjinfo prints the structure of a scene document and, optionally,
// body poses after simulating it for a number of steps.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"quarkview/app/fetch"
	"quarkview/quark/mjcf"
	"quarkview/quark/physics"
)

func main() {
	var (
		inPath = flag.String("in", "", "Scene document path or URL.")
		base   = flag.String("base", "", "Directory relative paths are resolved against.")
		steps  = flag.Int("steps", 0, "Simulate N steps and print the resulting body poses.")
		body   = flag.String("body", "", "Print the pose of this body only.")
	)
	flag.Parse()
	if *inPath == "" && flag.NArg() > 0 {
		*inPath = flag.Arg(0)
	}
	if *inPath == "" {
		fatalf("usage: mjinfo [-base dir] [-steps N] [-body name] scene.xml")
	}

	data, err := fetch.Fetch(context.Background(), *inPath, *base)
	if err != nil {
		fatalf("%v", err)
	}
	m, err := mjcf.Parse(data)
	if err != nil {
		fatalf("%v", err)
	}
	only := -1
	if *body != "" {
		if only = m.BodyID(*body); only < 0 {
			fatalf("mjinfo: no body named %q", *body)
		}
	}
	report(os.Stdout, m)
	if *steps > 0 || only >= 0 {
		sim := physics.NewSimulation(m, physics.NewState(m))
		for i := 0; i < *steps; i++ {
			sim.Step()
		}
		poses(os.Stdout, sim, only)
	}
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(2)
}

func report(out io.Writer, m *physics.Model) {
	fmt.Fprintf(out, "model %q: nbody=%d nq=%d nv=%d ngeom=%d nlight=%d timestep=%g\n",
		m.Name, m.NBody, m.NQ, m.NV, len(m.Geoms), len(m.Lights), m.Opt.Timestep)

	depth := make([]int, m.NBody)
	fmt.Fprintln(out, "bodies:")
	for b, body := range m.Bodies {
		if b > 0 {
			depth[b] = depth[body.Parent] + 1
		}
		var joints []string
		for j := body.JointAdr; j < body.JointAdr+body.JointNum; j++ {
			joints = append(joints, fmt.Sprintf("%s:%s", m.Joints[j].Type, name(m.Joints[j].Name, j)))
		}
		line := fmt.Sprintf("%s%d %s mass=%.4g", strings.Repeat("  ", depth[b]+1), b, name(body.Name, b), body.Mass)
		if len(joints) > 0 {
			line += " [" + strings.Join(joints, " ") + "]"
		}
		fmt.Fprintln(out, line)
	}

	if len(m.Geoms) > 0 {
		fmt.Fprintln(out, "geoms:")
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for g, geom := range m.Geoms {
			fmt.Fprintf(tw, "  %d\t%s\t%s\tbody=%d\tsize=%.3g %.3g %.3g\n",
				g, name(geom.Name, g), geom.Type, geom.Body, geom.Size[0], geom.Size[1], geom.Size[2])
		}
		tw.Flush()
	}
	if len(m.Lights) > 0 {
		fmt.Fprintln(out, "lights:")
		for i, l := range m.Lights {
			kind := "spot"
			if l.Directional {
				kind = "directional"
			}
			fmt.Fprintf(out, "  %d %s %s body=%d active=%v\n", i, name(l.Name, i), kind, l.Body, l.Active)
		}
	}
}

// poses prints body poses; only >= 0 restricts the listing to that body.
func poses(out io.Writer, sim *physics.Simulation, only int) {
	fmt.Fprintf(out, "poses at t=%.4f (contacts=%d):\n", sim.State.Time, sim.Contacts)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for b := 0; b < sim.Model.NBody; b++ {
		if only >= 0 && b != only {
			continue
		}
		p, q := sim.XPos[3*b:3*b+3], sim.XQuat[4*b:4*b+4]
		fmt.Fprintf(tw, "  %d\t%s\tpos=%.4f %.4f %.4f\tquat=%.4f %.4f %.4f %.4f\n",
			b, name(sim.Model.Bodies[b].Name, b), p[0], p[1], p[2], q[0], q[1], q[2], q[3])
	}
	tw.Flush()
}

func name(s string, id int) string {
	if s != "" {
		return s
	}
	return fmt.Sprintf("#%d", id)
}
