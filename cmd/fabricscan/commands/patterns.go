// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package commands

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vulntor/fabricscan/cmd/fabricscan/internal/format"
	"github.com/vulntor/fabricscan/pkg/dump"
	"github.com/vulntor/fabricscan/pkg/pattern"
)

func newPatternsCommand() *cobra.Command {
	var (
		role     string
		profiles bool
		rules    bool
	)

	cmd := &cobra.Command{
		Use:     "patterns",
		Short:   "List patterns, dump profiles or signature rules",
		GroupID: "info",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			out := format.FromCommand(cmd)

			switch {
			case profiles:
				return listProfiles(out)
			case rules:
				reg, err := loadRegistry(cfg)
				if err != nil {
					return err
				}
				cascade, err := loadCascade(cfg, reg)
				if err != nil {
					return err
				}
				rows := make([][]string, 0)
				for _, r := range cascade.Rules() {
					companion := "-"
					if r.Companion > 0 {
						companion = strconv.Itoa(r.Companion)
					}
					rows = append(rows, []string{
						strconv.Itoa(r.ID), strconv.Itoa(r.Priority), string(r.AppliesTo), r.Pattern, companion, r.Description,
					})
				}
				if err := out.PrintTable([]string{"ID", "Priority", "Applies To", "Pattern", "Companion", "Description"}, rows); err != nil {
					return err
				}
				return out.PrintSummary(fmt.Sprintf("%d rules, catalog %s", len(rows), cascade.Version()))
			default:
				reg, err := loadRegistry(cfg)
				if err != nil {
					return err
				}
				return listPatterns(out, reg, pattern.Role(role))
			}
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "Only list patterns with this role")
	cmd.Flags().BoolVar(&profiles, "profiles", false, "List built-in dump profiles")
	cmd.Flags().BoolVar(&rules, "rules", false, "List device signature rules in priority order")
	cmd.MarkFlagsMutuallyExclusive("profiles", "rules", "role")

	return cmd
}

func listPatterns(out format.Formatter, reg *pattern.Registry, role pattern.Role) error {
	if role != "" && !role.IsValid() {
		roles := make([]string, 0)
		for _, r := range pattern.AllRoles() {
			roles = append(roles, string(r))
		}
		return fmt.Errorf("unknown role %q (one of: %s)", role, strings.Join(roles, ", "))
	}

	rows := make([][]string, 0, reg.Len())
	for _, name := range reg.Names() {
		e, err := reg.Get(name)
		if err != nil {
			return err
		}
		if role != "" && e.Role() != role {
			continue
		}
		rows = append(rows, []string{e.Name(), string(e.Role()), strconv.Itoa(e.Arity())})
	}
	if err := out.PrintTable([]string{"Name", "Role", "Arity"}, rows); err != nil {
		return err
	}
	return out.PrintSummary(fmt.Sprintf("%d patterns, catalog %s", len(rows), reg.Version()))
}

func listProfiles(out format.Formatter) error {
	names, err := dump.Profiles()
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		p, err := dump.LookupProfile(name)
		if err != nil {
			return err
		}
		sections := make([]string, len(p.Sections))
		for i, s := range p.Sections {
			sections[i] = s.Name
		}
		sort.Strings(sections)
		key := "-"
		if p.Key != nil {
			key = p.Key.Section + "." + p.Key.Field
		}
		rows = append(rows, []string{p.Name, key, strings.Join(sections, ","), p.Description})
	}
	return out.PrintTable([]string{"Profile", "Key", "Sections", "Description"}, rows)
}
