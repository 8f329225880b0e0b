package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"civicpulse/config"
	"civicpulse/models"
	"civicpulse/service"
	"civicpulse/utils"
)

func newDistanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "distance LAT1 LON1 LAT2 LON2",
		Short: "Great-circle distance in meters",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			var v [4]float64
			for i, a := range args {
				f, err := strconv.ParseFloat(a, 64)
				if err != nil {
					return fmt.Errorf("argument %d: %w", i+1, err)
				}
				v[i] = f
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.2f\n", utils.Distance(v[0], v[1], v[2], v[3]))
			return nil
		},
	}
}

func newNearbyCmd() *cobra.Command {
	var (
		file     string
		lat, lng float64
		radius   float64
	)
	cmd := &cobra.Command{
		Use:   "nearby",
		Short: "List open reports from a fixture within a radius of a point",
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, err := loadReports(file)
			if err != nil {
				return err
			}
			matches := service.FindNearby(models.Coordinates{Latitude: lat, Longitude: lng}, radius, reports)
			return writeJSON(cmd, matches)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON array of reports")
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude")
	cmd.Flags().Float64Var(&radius, "radius", config.DefaultPolicy().Duplicate.RadiusMeters, "radius in meters")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newRouteCmd() *cobra.Command {
	var (
		file       string
		policyPath string
		lat, lng   float64
		skills     []string
		opts       models.RouteOptions
		mode       string
	)
	cmd := &cobra.Command{
		Use:   "route",
		Short: "Order a fixture of tasks the way the worker dashboard would",
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, err := loadReports(file)
			if err != nil {
				return err
			}
			policy, err := config.LoadPolicy(policyPath)
			if err != nil {
				return err
			}

			var current *models.Coordinates
			if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng") {
				current = &models.Coordinates{Latitude: lat, Longitude: lng}
			}
			opts.TravelMode = models.TravelMode(strings.ToLower(mode))
			opts.SkillFilter = len(skills) > 0

			result, err := service.NewTaskRouter(policy.Routing).Route(context.Background(), reports, current, skills, opts)
			if err != nil {
				return err
			}
			return writeJSON(cmd, result)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON array of reports")
	cmd.Flags().StringVar(&policyPath, "policy", "", "YAML policy file (defaults when empty)")
	cmd.Flags().Float64Var(&lat, "lat", 0, "worker latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "worker longitude")
	cmd.Flags().StringSliceVar(&skills, "skills", nil, "skill keywords; enables the skill filter")
	cmd.Flags().IntVar(&opts.MaxTasksPerDay, "max", 0, "max tasks per day")
	cmd.Flags().Float64Var(&opts.WorkloadBalanceFraction, "fraction", 0, "workload balance fraction (0.5-1.0)")
	cmd.Flags().StringVar(&mode, "mode", string(models.TravelDriving), "walking, cycling or driving")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func loadReports(path string) ([]*models.Report, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var reports []*models.Report
	if err := json.Unmarshal(b, &reports); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return reports, nil
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
