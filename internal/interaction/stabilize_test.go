// internal/interaction/stabilize_test.go
package interaction

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/jobprobe/internal/browser/driver"
	"github.com/xkilldash9x/jobprobe/internal/browser/driver/drivertest"
)

var (
	rowsLoc  = driver.CSS("#jobs-list .position-list-item")
	titleLoc = driver.CSS("p.position-title")
	deptLoc  = driver.CSS("span.position-department")
	listLoc  = driver.ID("jobs-list")
)

func row(id, title, dept string) *drivertest.Node {
	return (&drivertest.Node{ID: id}).
		Add(titleLoc, &drivertest.Node{ID: id + "-title", Text: title}).
		Add(deptLoc, &drivertest.Node{ID: id + "-dept", Text: dept})
}

func TestWaitForPopulated(t *testing.T) {
	ctx := context.Background()
	spec := ListSpec{Rows: rowsLoc, Fields: []driver.Locator{titleLoc, deptLoc}}

	t.Run("rows with text arriving late", func(t *testing.T) {
		tk, f, clock := newTestToolkit()
		f.Page().SetFunc(rowsLoc, func(call int) ([]*drivertest.Node, error) {
			switch {
			case call == 1:
				return nil, nil
			case call < 4:
				return []*drivertest.Node{row("r1", " ", "\n")}, nil
			default:
				return []*drivertest.Node{row("r1", "QA Engineer", "Quality Assurance")}, nil
			}
		})

		assert.True(t, tk.Stabilizer.WaitForPopulated(ctx, spec, 5*time.Second))
		assert.Equal(t, 600*time.Millisecond, clock.Total())
	})

	t.Run("one complete row is enough", func(t *testing.T) {
		tk, f, _ := newTestToolkit()
		f.Page().Set(rowsLoc, row("r1", "QA Engineer", ""), row("r2", "QA Lead", "Quality Assurance"))

		assert.True(t, tk.Stabilizer.WaitForPopulated(ctx, spec, time.Second))
	})

	t.Run("unreadable fields count as blank", func(t *testing.T) {
		tk, f, _ := newTestToolkit()
		r := row("r1", "QA Engineer", "Quality Assurance")
		r.Children[deptLoc][0].Stale = true
		f.Page().Set(rowsLoc, r)

		assert.False(t, tk.Stabilizer.WaitForPopulated(ctx, spec, time.Second))
	})

	t.Run("never populated reports false after the timeout", func(t *testing.T) {
		tk, f, clock := newTestToolkit()
		f.Page().Set(rowsLoc, row("r1", "", ""))

		assert.False(t, tk.Stabilizer.WaitForPopulated(ctx, spec, 2*time.Second))
		assert.Equal(t, 2*time.Second, clock.Total())
	})

	t.Run("unexpected lookup errors report false", func(t *testing.T) {
		tk, f, clock := newTestToolkit()
		f.Page().SetFunc(rowsLoc, func(int) ([]*drivertest.Node, error) {
			return nil, driver.NewError(driver.KindUnexpected, "find", nil)
		})

		assert.False(t, tk.Stabilizer.WaitForPopulated(ctx, spec, 2*time.Second))
		assert.Empty(t, clock.Sleeps)
	})
}

func TestWaitForContentChange(t *testing.T) {
	ctx := context.Background()

	t.Run("detects a re-rendered list", func(t *testing.T) {
		tk, f, _ := newTestToolkit()
		list := &drivertest.Node{ID: "list", Text: "QA Engineer  Remote"}
		f.Page().SetFunc(listLoc, func(call int) ([]*drivertest.Node, error) {
			if call >= 3 {
				list.Text = "QA Engineer Istanbul, Turkiye"
			}
			return []*drivertest.Node{list}, nil
		})

		before := tk.Stabilizer.Snapshot(ctx, listLoc)
		assert.Equal(t, "QA Engineer Remote", before)
		assert.True(t, tk.Stabilizer.WaitForContentChange(ctx, listLoc, before, 4*time.Second))
	})

	t.Run("whitespace-only differences are not a change", func(t *testing.T) {
		tk, f, clock := newTestToolkit()
		f.Page().Set(listLoc, &drivertest.Node{ID: "list", Text: "QA\tEngineer"})

		assert.False(t, tk.Stabilizer.WaitForContentChange(ctx, listLoc, "QA  Engineer", time.Second))
		assert.Equal(t, time.Second, clock.Total())
	})
}

func TestSnapshotMissingContainer(t *testing.T) {
	tk, _, _ := newTestToolkit()
	assert.Equal(t, "", tk.Stabilizer.Snapshot(context.Background(), listLoc))
}

func TestSettle(t *testing.T) {
	t.Run("waits the full duration", func(t *testing.T) {
		tk, _, clock := newTestToolkit()

		require.NoError(t, tk.Stabilizer.Settle(context.Background(), 4*time.Second))
		assert.Equal(t, 4*time.Second, clock.Total())
	})

	t.Run("ends with the context", func(t *testing.T) {
		tk, _, _ := newTestToolkit()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.ErrorIs(t, tk.Stabilizer.Settle(ctx, 4*time.Second), context.Canceled)
	})
}
