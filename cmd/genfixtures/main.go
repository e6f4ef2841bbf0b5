package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rehabmetrics/gaitetl/pkg/gen"
)

func main() {
	seed := flag.Int64("seed", 42, "PRNG seed (same seed, same fixtures)")
	out := flag.String("out", "data/raw", "Output directory")
	patients := flag.Int("patients", 150, "Number of patients")
	sessions := flag.Int("sessions", 2000, "Number of device usage sessions")
	assessments := flag.Int("assessments", 300, "Number of patient assessments")
	flag.Parse()

	if err := os.MkdirAll(*out, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	g := gen.New(*seed)
	if err := g.WriteFixtures(*out, *patients, *sessions, *assessments); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("fixtures written to %s (seed=%d)\n", *out, *seed)
}
