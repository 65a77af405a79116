package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) recompute() error {
	n, err := cli.courseSvc.RecomputeAll(context.Background())
	fmt.Printf("%d course(s) recomputed\n", n)
	return err
}
