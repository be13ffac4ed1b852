package main

import (
	"fmt"
	"log"
	"sort"

	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/sugarme/cae/cae"
)

func printVars(vs *nn.VarStore) {
	vars := vs.Variables()
	names := make([]string, 0, len(vars))
	for n := range vars {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Printf("%v \t\t %v\n", n, vars[n].MustSize())
	}
}

// runCheckModel builds the autoencoder, prints its variables and runs one
// forward pass on a random batch.
func runCheckModel() {
	cfg := cae.DefaultConfig(int64(PatchSize))
	cfg.Device = Device
	m, err := cae.New(cfg)
	if err != nil {
		log.Fatal(err)
	}

	printVars(m.VarStore())

	size := int64(PatchSize)
	x := ts.MustRand([]int64{int64(BatchSize), 1, size, size}, gotch.Float, Device)
	var out *ts.Tensor
	ts.NoGrad(func() {
		out = m.Net().ForwardT(x, false)
	})
	fmt.Printf("input: %v - output: %v\n", x.MustSize(), out.MustSize())
	x.MustDrop()
	out.MustDrop()
}
