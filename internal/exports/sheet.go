// Package exports renders schedule grids as spreadsheets and ships them to object storage
// through the background worker.
package exports

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/media-rota/backend/internal/projection"
)

const (
	sheetName      = "Schedule"
	notApplicable  = "n/a"
	timeLayout     = "15:04"
	dateLayout     = "2006-01-02"
	fixedColumns   = 5
	unavailableCol = "Unavailable"
)

type roleColumn struct {
	id    uuid.UUID
	name  string
	order int
	code  string
}

// Render writes one row per event: date, times, title and type, then one column per role
// holding the assigned user's name, then the names of unavailable users.
func Render(grid projection.GridView) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	roles := roleColumns(grid)
	header := []any{"Date", "Start", "End", "Event", "Type"}
	for _, r := range roles {
		header = append(header, r.name)
	}
	header = append(header, unavailableCol)
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, ev := range grid.Events {
		row := eventRow(ev, roles)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("write event %s: %w", ev.ID, err)
		}
	}

	if err := styleHeader(f, len(header)); err != nil {
		return nil, err
	}
	return f.WriteToBuffer()
}

// eventRow returns the cell values for one event in column order.
func eventRow(ev projection.GridEventView, roles []roleColumn) []any {
	row := make([]any, 0, fixedColumns+len(roles)+1)
	row = append(row,
		ev.StartsAt.Format(dateLayout),
		ev.StartsAt.Format(timeLayout),
		ev.EndsAt.Format(timeLayout),
		ev.Title,
		ev.EventTypeName,
	)
	byRole := make(map[uuid.UUID]projection.AssignmentView, len(ev.Assignments))
	for _, a := range ev.Assignments {
		byRole[a.RoleID] = a
	}
	for _, r := range roles {
		row = append(row, slotText(byRole[r.id], r.id))
	}
	names := make([]string, 0, len(ev.UnavailableUsers))
	for _, u := range ev.UnavailableUsers {
		names = append(names, u.FirstName+" "+u.LastName)
	}
	return append(row, strings.Join(names, ", "))
}

func slotText(a projection.AssignmentView, roleID uuid.UUID) string {
	if a.RoleID != roleID {
		return ""
	}
	if !a.IsApplicable {
		return notApplicable
	}
	if a.UserFirstName == nil {
		return ""
	}
	return *a.UserFirstName + " " + *a.UserLastName
}

// roleColumns collects every role used by any event, in role display order then code.
func roleColumns(grid projection.GridView) []roleColumn {
	seen := make(map[uuid.UUID]bool)
	var cols []roleColumn
	for _, ev := range grid.Events {
		for _, a := range ev.Assignments {
			if seen[a.RoleID] {
				continue
			}
			seen[a.RoleID] = true
			cols = append(cols, roleColumn{id: a.RoleID, name: a.RoleName, order: a.RoleOrder, code: a.RoleCode})
		}
	}
	sort.Slice(cols, func(i, j int) bool {
		if cols[i].order != cols[j].order {
			return cols[i].order < cols[j].order
		}
		return cols[i].code < cols[j].code
	})
	return cols
}

func styleHeader(f *excelize.File, columns int) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(columns, 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", last, style); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}
	return f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
