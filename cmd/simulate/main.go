package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"fieldnav/internal/catalog"
	"fieldnav/internal/config"
	"fieldnav/internal/model"
	"fieldnav/internal/opt"
	"fieldnav/internal/sim"
)

// Offline competition runner: loads a site catalog from CSV, plays the
// configured agents over N days, and prints the standings. Use -out to also
// save the full JSON report.

func main() {
	_ = godotenv.Load()

	var (
		catalogPath = flag.String("catalog", "", "site catalog CSV (required)")
		boundsPath  = flag.String("bounds", "", "zone bounds CSV (zone,lat_min,lat_max,lon_min,lon_max)")
		startsCSV   = flag.String("starts-csv", "", "starting coordinates CSV (id,lat,lon); needs -bounds to resolve zones")
		configPath  = flag.String("config", "", "service config YAML")
		days        = flag.Int("days", sim.DefaultDays, "number of simulated days")
		seed        = flag.Int64("seed", 0, "competition seed (0 picks one from the clock)")
		agentsFlag  = flag.String("agents", "greedy:greedy,genetic:genetic,random:random,high_value:high_value", "comma-separated name:strategy pairs")
		startsFlag  = flag.String("starts", "", "comma-separated start site ids, one per day")
		out         = flag.String("out", "", "write JSON report to this path")
		verbose     = flag.Bool("v", false, "print per-day results")
	)
	flag.Parse()

	if *catalogPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	f, err := os.Open(*catalogPath)
	if err != nil {
		log.Fatalf("open catalog: %v", err)
	}
	cat, err := catalog.LoadCSV(f)
	f.Close()
	if err != nil {
		log.Fatalf("load catalog: %v", err)
	}

	o, err := opt.New(cfg.Optimizer, cat.Zones())
	if err != nil {
		log.Fatalf("optimizer: %v", err)
	}
	sm := sim.New(cat, o)

	agents, err := parseAgents(*agentsFlag)
	if err != nil {
		log.Fatalf("agents: %v", err)
	}
	starts, err := parseIDs(*startsFlag)
	if err != nil {
		log.Fatalf("starts: %v", err)
	}
	startSites, err := loadStartingSites(*startsCSV, *boundsPath)
	if err != nil {
		log.Fatalf("starting points: %v", err)
	}

	var onEvent sim.EventFunc
	if *verbose {
		onEvent = func(event string, data map[string]any) {
			if event == "day.completed" {
				log.Printf("day %v agent=%v zone=%v value=%v stops=%v",
					data["day"], data["agent"], data["zone"], data["value"], data["stops"])
			}
		}
	}

	comp, err := sm.RunCompetition(sim.Spec{
		Days:         *days,
		Starts:       startSites,
		StartSiteIDs: starts,
		Seed:         *seed,
		Agents:       agents,
	}, onEvent)
	if err != nil {
		log.Fatalf("competition: %v", err)
	}

	fmt.Print(sim.FormatStandings(comp))
	if *out != "" {
		if err := sim.SaveReport(*out, comp); err != nil {
			log.Fatalf("report: %v", err)
		}
		log.Printf("report written to %s", *out)
	}
}

// loadStartingSites mints per-day starting sites from a coordinates CSV,
// resolving each row's zone through the bounds file.
func loadStartingSites(startsPath, boundsPath string) ([]model.Site, error) {
	if startsPath == "" {
		return nil, nil
	}
	if boundsPath == "" {
		return nil, fmt.Errorf("-starts-csv requires -bounds to resolve zones")
	}
	bf, err := os.Open(boundsPath)
	if err != nil {
		return nil, err
	}
	bounds, err := catalog.LoadBoundsCSV(bf)
	bf.Close()
	if err != nil {
		return nil, err
	}
	sf, err := os.Open(startsPath)
	if err != nil {
		return nil, err
	}
	defer sf.Close()
	return catalog.LoadStartingPointsCSV(sf, bounds)
}

func parseAgents(s string) ([]model.AgentSpec, error) {
	var agents []model.AgentSpec
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, strategy, ok := strings.Cut(part, ":")
		if !ok {
			strategy = name
		}
		if _, err := opt.ParseStrategy(strategy); err != nil {
			return nil, fmt.Errorf("agent %q: %w", name, err)
		}
		agents = append(agents, model.AgentSpec{Name: name, Strategy: strategy})
	}
	if len(agents) == 0 {
		return nil, fmt.Errorf("no agents given")
	}
	return agents, nil
}

func parseIDs(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var ids []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("bad site id %q", part)
		}
		ids = append(ids, n)
	}
	return ids, nil
}
