package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"strings"

	"kansenkaart/app"
	"kansenkaart/data"
	"kansenkaart/directory"
	"kansenkaart/kaart"
	"kansenkaart/preset"
)

var EnvFlag = flag.String("env", "dev", "Set the environment")
var AddressFlag = flag.String("address", ":8080", "Address for server")
var DataFlag = flag.String("data", "", "Data directory (default $KANSENKAART_DATA or $HOME/.kansenkaart/data)")

func main() {
	flag.Parse()

	if *DataFlag != "" {
		data.SetDir(*DataFlag)
	}

	// Load everything before serving: filter options must exist before
	// any URL state is read, and markers before the first page render.
	directory.Load(context.Background())

	// load saved presets and start the weekly snapshot sweep
	preset.Load()
	preset.StartSweep()

	// the map (and filtered JSON API)
	http.HandleFunc("/", kaart.Handler)

	// list and detail views
	http.HandleFunc("/lijst", kaart.ListHandler)
	http.HandleFunc("/entry", kaart.EntryHandler)

	// CSV export of the current selection
	http.HandleFunc("/export", kaart.ExportHandler)

	// saved filter presets
	http.HandleFunc("/presets", kaart.PresetHandler)
	http.HandleFunc("/presets/", kaart.PresetHandler)

	// municipality boundaries
	http.HandleFunc("/gemeenten.geojson", kaart.BoundaryHandler)

	// help + assets
	http.HandleFunc("/help", kaart.HelpHandler)
	http.HandleFunc("/kaart.css", kaart.CSSHandler)

	// system status
	http.HandleFunc("/status", app.StatusHandler)

	fmt.Println("Starting server on", *AddressFlag)

	if err := http.ListenAndServe(*AddressFlag, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if *EnvFlag == "dev" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
		}

		if v := len(r.URL.Path); v > 1 && strings.HasSuffix(r.URL.Path, "/") {
			r.URL.Path = r.URL.Path[:v-1]
		}

		http.DefaultServeMux.ServeHTTP(w, r)
	})); err != nil {
		fmt.Printf("Server error: %v\n", err)
	}
}
