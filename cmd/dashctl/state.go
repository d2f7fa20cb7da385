package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	dashboard "github.com/goliatone/go-retail-dashboard/components/dashboard"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/filters"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/state"
)

type stateCmd struct {
	Show   stateShowCmd   `cmd:"" help:"Print the persisted state of a page."`
	Reset  stateResetCmd  `cmd:"" help:"Restore a page to its defaults."`
	Filter stateFilterCmd `cmd:"" help:"Change the filters of a page."`
}

type stateShowCmd struct {
	Page string `arg:"" enum:"performance,charts" default:"performance" help:"Page to print."`

	out io.Writer
}

func (cmd *stateShowCmd) Run(ctx context.Context, rt *runtime) error {
	page, err := parsePage(cmd.Page)
	if err != nil {
		return err
	}
	app, closeApp, err := rt.openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp()

	var payload any
	switch page {
	case dashboard.PageCharts:
		payload = app.Service.Charts().State()
	default:
		payload = app.Service.Performance().State()
	}
	out := cmd.out
	if out == nil {
		out = os.Stdout
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"page":   page,
		"state":  payload,
		"locale": app.Locale.Snapshot(),
	})
}

type stateResetCmd struct {
	Page string `arg:"" enum:"performance,charts" help:"Page to reset."`
}

func (cmd *stateResetCmd) Run(ctx context.Context, rt *runtime) error {
	page, err := parsePage(cmd.Page)
	if err != nil {
		return err
	}
	app, closeApp, err := rt.openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp()
	if err := app.Service.ResetPage(ctx, viewer(app), page); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ Reset %s page\n", page)
	return nil
}

type stateFilterCmd struct {
	Page      string   `arg:"" enum:"performance,charts" help:"Page to filter."`
	StoreType []string `name:"store-type" help:"Store types to show (performance page, repeatable)."`
	Zone      []string `help:"Location zones to show (repeatable; the charts page takes one)."`
	Period    string   `help:"Time period (Daily, Weekly, Monthly, Custom)."`
	Brand     string   `help:"Brand (charts page)."`
}

func (cmd *stateFilterCmd) Run(ctx context.Context, rt *runtime) error {
	page, err := parsePage(cmd.Page)
	if err != nil {
		return err
	}
	update, err := cmd.update(page)
	if err != nil {
		return err
	}
	app, closeApp, err := rt.openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp()
	if err := app.Service.UpdateFilters(ctx, viewer(app), page, update); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ Updated %s filters\n", page)
	return nil
}

func (cmd *stateFilterCmd) update(page dashboard.Page) (dashboard.FilterUpdate, error) {
	var update dashboard.FilterUpdate
	if page == dashboard.PageCharts {
		patch := &state.ChartFilterPatch{}
		if len(cmd.StoreType) > 0 {
			return update, fmt.Errorf("dashctl: the charts page has no store type filter")
		}
		if len(cmd.Zone) > 1 {
			return update, fmt.Errorf("dashctl: the charts page takes a single zone")
		}
		if len(cmd.Zone) == 1 {
			zone, err := filters.ParseLocationZone(cmd.Zone[0])
			if err != nil {
				return update, err
			}
			patch.SelectedZone = &zone
		}
		if cmd.Brand != "" {
			brand, err := filters.ParseBrand(cmd.Brand)
			if err != nil {
				return update, err
			}
			patch.SelectedBrand = &brand
		}
		if cmd.Period != "" {
			period, err := filters.ParseTimePeriod(cmd.Period)
			if err != nil {
				return update, err
			}
			patch.SelectedTimePeriod = &period
		}
		update.Charts = patch
		return update, nil
	}

	if cmd.Brand != "" {
		return update, fmt.Errorf("dashctl: the performance page has no brand filter")
	}
	patch := &state.FilterPatch{}
	if len(cmd.StoreType) > 0 {
		types, err := filters.ParseStoreTypes(cmd.StoreType)
		if err != nil {
			return update, err
		}
		patch.StoreTypes = types
	}
	if len(cmd.Zone) > 0 {
		zones, err := filters.ParseLocationZones(cmd.Zone)
		if err != nil {
			return update, err
		}
		patch.LocationZones = zones
	}
	if cmd.Period != "" {
		period, err := filters.ParseTimePeriod(cmd.Period)
		if err != nil {
			return update, err
		}
		patch.TimePeriod = &period
	}
	update.Performance = patch
	return update, nil
}

type widgetsCmd struct {
	Toggle widgetsToggleCmd `cmd:"" help:"Show or hide a widget."`
}

type widgetsToggleCmd struct {
	Page string `arg:"" enum:"performance,charts" help:"Page holding the widget."`
	ID   string `arg:"" help:"Widget id, e.g. top-skus-table."`
}

func (cmd *widgetsToggleCmd) Run(ctx context.Context, rt *runtime) error {
	page, err := parsePage(cmd.Page)
	if err != nil {
		return err
	}
	app, closeApp, err := rt.openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp()
	widgets, err := app.Service.ToggleWidget(ctx, viewer(app), page, cmd.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ %s widgets: %v\n", page, widgets)
	return nil
}
