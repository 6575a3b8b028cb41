// Package main implements schema-exporter, which writes a JSON Schema per
// registered component and a YAML catalog of components, ports and
// parameters.
package main

import (
	"flag"
	"log"
	"path/filepath"

	"github.com/andrepuschmann/iris-modules-ospecorr/componentregistry"
)

func main() {
	outDir := flag.String("out", "./schemas", "Output directory for schemas")
	catalogOut := flag.String("catalog", "", "Output path for the YAML catalog (default <out>/catalog.yaml)")
	flag.Parse()

	if *catalogOut == "" {
		*catalogOut = filepath.Join(*outDir, "catalog.yaml")
	}

	log.Printf("Schema Exporter")
	log.Printf("  Output dir: %s", *outDir)
	log.Printf("  Catalog: %s", *catalogOut)

	registry, err := componentregistry.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to register components: %v", err)
	}

	written, err := export(registry, *outDir, *catalogOut)
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}
	for _, path := range written {
		log.Printf("  Generated: %s", path)
	}
	log.Printf("Schema generation complete")
}
