package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/jeffersonwarrior/reqcore/request"
)

// batchFile is the YAML layout accepted by "reqcore batch".
//
//	calls:
//	  - route: GET /orgs/{org}
//	    params: {org: octokit}
//	    redirect: manual
type batchFile struct {
	Calls []batchCall `yaml:"calls"`
}

type batchCall struct {
	Route    string            `yaml:"route"`
	Params   map[string]any    `yaml:"params"`
	Headers  map[string]string `yaml:"headers"`
	Redirect string            `yaml:"redirect"`
}

type batchResult struct {
	route    string
	status   int
	duration time.Duration
	err      error
}

func loadBatch(path string) (*batchFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	var bf batchFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return nil, fmt.Errorf("failed to parse batch file: %w", err)
	}
	if len(bf.Calls) == 0 {
		return nil, fmt.Errorf("batch file %s has no calls", path)
	}
	for i, c := range bf.Calls {
		if c.Route == "" {
			return nil, fmt.Errorf("call %d: route is required", i+1)
		}
		if _, err := request.ParseRedirect(c.Redirect); err != nil {
			return nil, fmt.Errorf("call %d: %w", i+1, err)
		}
	}
	return &bf, nil
}

func (a *app) newBatchCmd() *cobra.Command {
	var parallel int

	cmd := &cobra.Command{
		Use:   "batch FILE.yaml",
		Short: "Execute the calls listed in a YAML file concurrently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bf, err := loadBatch(args[0])
			if err != nil {
				return err
			}
			if parallel <= 0 {
				parallel = a.cfg.Batch.Parallel
			}
			return a.runBatch(cmd, bf, parallel)
		},
	}

	cmd.Flags().IntVarP(&parallel, "parallel", "p", 0, "Maximum concurrent calls (default from config)")
	return cmd
}

// runBatch executes every call once. A failed call does not cancel the others.
func (a *app) runBatch(cmd *cobra.Command, bf *batchFile, parallel int) error {
	hist, err := a.openHistory()
	if err != nil {
		return err
	}
	if hist != nil {
		defer hist.Close()
	}

	client := a.newClient(hist)
	resolver := a.resolver()
	results := make([]batchResult, len(bf.Calls))

	var g errgroup.Group
	g.SetLimit(parallel)

	for i, c := range bf.Calls {
		g.Go(func() error {
			res := batchResult{route: c.Route}
			defer func() { results[i] = res }()

			ep, err := resolver.Resolve(c.Route, c.Params)
			if err != nil {
				res.err = err
				return nil
			}
			for k, v := range c.Headers {
				ep.Headers[k] = v
			}
			redirect := c.Redirect
			if redirect == "" {
				redirect = a.cfg.Redirect
			}
			policy, err := request.ParseRedirect(redirect)
			if err != nil {
				res.err = err
				return nil
			}

			ctx, cancel := a.callContext(cmd.Context())
			defer cancel()

			resp, err := client.Do(ctx, ep, request.Options{Redirect: policy})
			if err != nil {
				res.err = err
				var reqErr *request.RequestError
				if errors.As(err, &reqErr) {
					res.status = reqErr.Status
				}
				return nil
			}
			res.status = resp.Status
			res.duration = resp.Duration
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			fmt.Fprintf(a.stdout, "FAIL %3d %s: %v\n", r.status, r.route, r.err)
			continue
		}
		fmt.Fprintf(a.stdout, "ok   %3d %s (%s)\n", r.status, r.route, r.duration.Round(time.Millisecond))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d calls failed", failed, len(results))
	}
	return nil
}
