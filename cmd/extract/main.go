// Command extract converts the mesh resources of one package file into a
// single OBJ file.
package main

import (
	"flag"
	"fmt"
	"os"

	"dbpf-mlod-renderer/internal/dbpf"
	"dbpf-mlod-renderer/internal/obj"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func main() {
	out := flag.String("o", "output.obj", "Output OBJ path")
	skipBroken := flag.Bool("skip-broken", false, "Leave out resources that fail to decode")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: extract [flags] <file.package>\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	n, err := extract(flag.Arg(0), *out, *skipBroken, logrus.NewEntry(log))
	if err != nil {
		log.WithError(err).Fatal("extract failed")
	}
	fmt.Printf("Wrote %d mesh resource(s) to %s\n", n, *out)
}

// extract writes every mesh of every resource as consecutive objects.
func extract(in, out string, skipBroken bool, log *logrus.Entry) (int, error) {
	buf, err := os.ReadFile(in)
	if err != nil {
		return 0, err
	}

	dec := dbpf.Decoder{SkipBroken: skipBroken, Log: log}
	resources, err := dec.Decode(buf)
	var skipped dbpf.ResourceErrors
	if err != nil && !errors.As(err, &skipped) {
		return 0, err
	}
	if len(resources) == 0 {
		return 0, errors.Errorf("%s: no mesh resources", in)
	}

	// Meshes of all resources share one vertex numbering.
	var merged dbpf.MeshResource
	for _, r := range resources {
		merged.Meshes = append(merged.Meshes, r.Meshes...)
	}

	f, err := os.Create(out)
	if err != nil {
		return 0, err
	}
	if err := obj.WriteResource(f, merged); err != nil {
		f.Close()
		return 0, err
	}
	return len(resources), f.Close()
}
