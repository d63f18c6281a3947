package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/EmpoweredVote/voterpower-map/internal/tableimport"
)

func main() {
	_ = godotenv.Load(".env.local")

	var (
		results    = flag.String("results", "", "results JSON (path or URL)")
		boundaries = flag.String("boundaries", "", "boundary lookup JSON (path or URL)")
		lowerShp   = flag.String("lower-shp", "", "TIGER SLDL shapefile; replaces lower-chamber boundaries")
		upperShp   = flag.String("upper-shp", "", "TIGER SLDU shapefile; replaces upper-chamber boundaries")
		geoidField = flag.String("geoid-field", tableimport.DefaultGeoIDField, "shapefile attribute holding the unit code")
		summaries  = flag.String("summaries", "", "state summary CSV (path or URL)")
		dbURL      = flag.String("db", os.Getenv("DATABASE_URL"), "DATABASE_URL")
		namespace  = flag.String("namespace", "", "UUID Namespace (required, stable forever)")
		confirm    = flag.Bool("confirm", false, "DANGER: replaces every row in the redistricting tables")
	)
	flag.Parse()

	if *results == "" || *dbURL == "" || *namespace == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := tableimport.Config{
		ResultsPath:   *results,
		BoundaryPath:  *boundaries,
		LowerShapes:   *lowerShp,
		UpperShapes:   *upperShp,
		GeoIDField:    *geoidField,
		SummariesPath: *summaries,
		DatabaseURL:   *dbURL,
		Namespace:     *namespace,
		Confirm:       *confirm,
	}

	if err := tableimport.Run(ctx, cfg); err != nil {
		log.Fatal(err)
	}
}
