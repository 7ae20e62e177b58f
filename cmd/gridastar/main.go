// Command gridastar finds a path on a grid read from a file or stdin and
// prints the waypoints.
//
//	gridastar -grid map.txt -start 0,0 -goal 9,9 -render
//
// Exit status is 0 when a path is found, 2 when the goal is unreachable and
// 1 on any error.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pdrpinto/gridastar"
)

const (
	exitFound   = 0
	exitError   = 1
	exitNoRoute = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("gridastar", flag.ContinueOnError)
	fs.SetOutput(stderr)
	gridPath := fs.String("grid", "-", "grid file, - for stdin")
	startFlag := fs.String("start", "", "start cell as row,col")
	goalFlag := fs.String("goal", "", "goal cell as row,col")
	render := fs.Bool("render", false, "draw the path over the grid")
	asJSON := fs.Bool("json", false, "print the route as JSON")
	logLevel := fs.String("log-level", "warn", "log level")
	if err := fs.Parse(args); err != nil {
		return exitError
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintln(stderr, "gridastar:", err)
		return exitError
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	route, grid, err := solve(*gridPath, *startFlag, *goalFlag, stdin, logger)
	if err != nil {
		logger.Error("search failed", "err", err)
		return exitError
	}

	switch {
	case *asJSON:
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(route); err != nil {
			logger.Error("writing output", "err", err)
			return exitError
		}
	case *render:
		fmt.Fprint(stdout, grid.Render(route.Path))
		fmt.Fprintf(stdout, "cost %d\n", route.Cost)
	default:
		for _, c := range route.Path {
			fmt.Fprintf(stdout, "%d,%d\n", c.Row, c.Col)
		}
	}

	if !route.Found {
		return exitNoRoute
	}
	return exitFound
}

func solve(gridPath, startFlag, goalFlag string, stdin io.Reader, logger *slog.Logger) (gridastar.Route, *gridastar.Grid, error) {
	start, err := parseCell(startFlag)
	if err != nil {
		return gridastar.Route{}, nil, fmt.Errorf("-start: %w", err)
	}
	goal, err := parseCell(goalFlag)
	if err != nil {
		return gridastar.Route{}, nil, fmt.Errorf("-goal: %w", err)
	}

	in := stdin
	if gridPath != "-" {
		f, err := os.Open(gridPath)
		if err != nil {
			return gridastar.Route{}, nil, err
		}
		defer f.Close()
		in = f
	}
	grid, err := gridastar.ParseGrid(in)
	if err != nil {
		return gridastar.Route{}, nil, err
	}
	logger.Debug("grid loaded", "size", grid.Size(), "source", gridPath)

	began := time.Now()
	path, err := gridastar.FindPath(grid, start, goal)
	if err != nil {
		return gridastar.Route{}, nil, err
	}
	cost, err := gridastar.PathCost(path)
	if err != nil {
		return gridastar.Route{}, nil, err
	}
	route := gridastar.Route{Start: start, Goal: goal, Path: path, Cost: cost, Found: len(path) > 0}
	logger.Info("search done", "found", route.Found, "cost", cost, "waypoints", len(path), "elapsed", time.Since(began))
	return route, grid, nil
}

var errCellFormat = errors.New("want row,col")

func parseCell(s string) (gridastar.Cell, error) {
	rowStr, colStr, ok := strings.Cut(s, ",")
	if !ok {
		return gridastar.Cell{}, fmt.Errorf("%q: %w", s, errCellFormat)
	}
	row, err := strconv.Atoi(strings.TrimSpace(rowStr))
	if err != nil {
		return gridastar.Cell{}, fmt.Errorf("%q: %w", s, errCellFormat)
	}
	col, err := strconv.Atoi(strings.TrimSpace(colStr))
	if err != nil {
		return gridastar.Cell{}, fmt.Errorf("%q: %w", s, errCellFormat)
	}
	return gridastar.Cell{Row: row, Col: col}, nil
}
