package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"icepl/chipdb"
	"icepl/fabric"
	"icepl/netlist"
	"icepl/place"
	"icepl/set"
	"icepl/stats"

	"gopkg.in/mgo.v2"
)

func main() {
	var cache, fabpath, nlpath, logp, server string

	var debug bool

	// Command line switches ///////////////////////////////////////////////////

	flag.StringVar(&cache, "cache", "", "name of chipdb cache in mongo")
	flag.StringVar(&fabpath, "fabric", "", "path to fabric json; if set, imports into the cache")
	flag.StringVar(&nlpath, "netlist", "", "path to design json with placement (req.)")
	flag.StringVar(&logp, "log", "", "path to file where log messages should be redirected")
	flag.StringVar(&server, "server", "localhost", "name of mongodb server")

	flag.BoolVar(&debug, "debug", false, "enable debug mode")

	flag.Parse()

	// Set log flags ///////////////////////////////////////////////////////////

	log.SetFlags(0)
	if debug {
		log.SetFlags(log.Lshortfile)
	}

	// Check for minimum arguments /////////////////////////////////////////////

	if nlpath == "" || (cache == "" && fabpath == "") {
		flag.PrintDefaults()
		log.Fatal("Insufficient arguments")
	}

	// If a log file is specified redirect log messages to it; stdout otherwise

	var logw io.Writer
	if logp != "" {
		var err error
		logw, err = os.Create(logp)
		if err != nil {
			log.Fatal(err)
		}
	} else {
		logw = os.Stdout
	}
	log.SetOutput(logw)

	// Load design /////////////////////////////////////////////////////////////

	nlfile, err := os.Open(nlpath)
	if err != nil {
		log.Fatal(err)
	}

	design, placement := netlist.Load(nlfile)
	nlfile.Close()
	log.Printf("Loaded design %q: %d cells, %d nets, %d placed.",
		design.Name, design.NumCells(), design.NumNets(), len(placement))

	// Build the fabric model: from a json description, importing it into the
	// chipdb cache when one is named, or straight from the cache otherwise.

	var model *fabric.Model

	if fabpath != "" {
		fabfile, err := os.Open(fabpath)
		if err != nil {
			log.Fatal(err)
		}

		model = fabric.Load(fabfile, design)
		fabfile.Close()

		if cache != "" {
			session, err := mgo.Dial(server)
			if err != nil {
				log.Fatal(err)
			}

			chipdb.InitMgo(session, cache, true)

			log.Println("Importing chipdb..")
			start := time.Now()
			chipdb.Save(model)
			chipdb.DoneMgo()
			chipdb.WaitMgo()
			log.Println("Chipdb imported. Elapsed:", time.Since(start))
		}
	} else {
		session, err := mgo.Dial(server)
		if err != nil {
			log.Fatal(err)
		}

		chipdb.InitMgo(session, cache, false)

		log.Println("Loading chipdb..")
		start := time.Now()
		model = chipdb.Load(design)
		log.Println("Chipdb loaded. Elapsed:", time.Since(start))
	}

	log.Printf("Fabric ready: %d bels, %d wires.", model.NumBels(), model.NumWires())

	// Apply recorded placement ////////////////////////////////////////////////

	for _, p := range placement {
		cell := design.CellByName(p.Cell)
		if cell == netlist.NilCell {
			log.Fatalf("Placement refers to unknown cell %q", p.Cell)
		}
		bel := model.BelByName(p.Bel)
		if bel == fabric.NilBel {
			log.Fatalf("Placement refers to unknown bel %q", p.Bel)
		}
		if model.BelType(bel).String() != design.Cell(cell).Type.String() {
			log.Fatalf("Placement binds %v to %s bel %q",
				design.Cell(cell), model.BelType(bel), p.Bel)
		}
		model.Bind(bel, cell)
	}

	// Audit every bel /////////////////////////////////////////////////////////

	checker := place.New(model)

	tally := stats.New()
	illegal := set.New()

	for b := 0; b < model.NumBels(); b++ {
		bel := fabric.BelId(b)
		if checker.IsBelLocationValid(bel) {
			tally.Add(model.BelType(bel).String() + " ok")
		} else {
			tally.Add(model.BelType(bel).String() + " bad")
			illegal.Add(model.BelName(bel))
		}
	}

	// Score distribution of placed logic cells, to show packing quality.

	scores := stats.New()
	for _, p := range placement {
		cell := design.Cell(design.CellByName(p.Cell))
		if cell.Type != netlist.LogicCell {
			continue
		}
		bel := model.BelByName(p.Bel)
		scores.Add(fmt.Sprintf("score %d", checker.ScoreBelForCell(cell, bel)))
	}

	// Print stats and quit ////////////////////////////////////////////////////

	log.Println(tally)
	if scores.Total() > 0 {
		log.Println(scores)
	}

	if illegal.Len() > 0 {
		log.Printf("%d illegal bel(s):", illegal.Len())
		for _, name := range illegal.Sort() {
			log.Println("  ", name)
		}
		os.Exit(1)
	}
}
