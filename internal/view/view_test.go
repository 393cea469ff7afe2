package view_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derickschaefer/workwatch/internal/entity"
	"github.com/derickschaefer/workwatch/internal/model"
	"github.com/derickschaefer/workwatch/internal/view"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

func emp(id int, name string, productivity int, status model.EmployeeStatus) model.Employee {
	return model.Employee{
		ID:           id,
		Name:         name,
		Email:        "user" + string(rune('a'+id)) + "@company.com",
		Department:   "Разработка",
		Position:     "Инженер",
		Productivity: productivity,
		Status:       status,
		LastActivity: time.Date(2024, 1, 15, 9, id, 0, 0, time.UTC),
	}
}

// trio is the three-employee store used by the scenario tests.
func trio() []model.Employee {
	return []model.Employee{
		emp(1, "Иван Петров", 85, model.StatusOnline),
		emp(2, "Мария Сидорова", 92, model.StatusOnline),
		emp(3, "Алексей Иванов", 67, model.StatusOffline),
	}
}

// eight mirrors the shape of the seeded employee set.
func eight() []model.Employee {
	es := []model.Employee{
		emp(1, "Иван Петров", 85, model.StatusOnline),
		emp(2, "Мария Сидорова", 92, model.StatusOnline),
		emp(3, "Алексей Иванов", 67, model.StatusAway),
		emp(4, "Ольга Кузнецова", 88, model.StatusBusy),
		emp(5, "Дмитрий Смирнов", 91, model.StatusOnline),
		emp(6, "Екатерина Волкова", 78, model.StatusOnline),
		emp(7, "Сергей Васильев", 45, model.StatusOffline),
		emp(8, "Анна Ковалева", 82, model.StatusOnline),
	}
	es[1].Department = "Дизайн"
	es[2].Department = "Маркетинг"
	es[4].Department = "Тестирование"
	es[5].Department = "Дизайн"
	es[6].Department = "Поддержка"
	es[7].Department = "Маркетинг"
	return es
}

func ids(es []model.Employee) []int {
	out := make([]int, len(es))
	for i, e := range es {
		out[i] = e.ID
	}
	return out
}

func productivities(es []model.Employee) []int {
	out := make([]int, len(es))
	for i, e := range es {
		out[i] = e.Productivity
	}
	return out
}

func defaults() view.State { return view.NewState(entity.Employees) }

// candidateStates is a spread of filter states used by the property tests.
func candidateStates(t *testing.T) []view.State {
	t.Helper()
	ranged, err := view.SetRange(defaults(), entity.Employees, 50, 90)
	require.NoError(t, err)
	return []view.State{
		defaults(),
		defaults().WithSearch("ов"),
		defaults().WithSearch("   "),
		defaults().WithCategory("Дизайн"),
		defaults().WithStatuses("online", "busy"),
		ranged,
		ranged.WithStatuses("online").ToggleSort(entity.KeyProductivity),
		defaults().ToggleSort(entity.KeyDepartment).ToggleSort(entity.KeyDepartment),
		defaults().ToggleSort(entity.KeyStatus),
		{Range: view.Range{Min: 90, Max: 10}, SortKey: entity.KeyName, Direction: view.Asc},
	}
}

// ─── Properties ───────────────────────────────────────────────────────────────

func TestProjectIsSubsetOfStore(t *testing.T) {
	store := eight()
	byID := make(map[int]model.Employee)
	for _, e := range store {
		byID[e.ID] = e
	}
	for _, st := range candidateStates(t) {
		for _, e := range view.Project(entity.Employees, store, st) {
			orig, ok := byID[e.ID]
			require.True(t, ok, "state %s produced unknown id %d", st, e.ID)
			assert.Equal(t, orig, e)
		}
	}
}

func TestProjectIsIdempotent(t *testing.T) {
	store := eight()
	for _, st := range candidateStates(t) {
		a := view.Project(entity.Employees, store, st)
		b := view.Project(entity.Employees, store, st)
		assert.Equal(t, a, b, "state %s", st)
	}
}

func TestProjectOutputIsSorted(t *testing.T) {
	store := eight()
	for _, st := range candidateStates(t) {
		out := view.Project(entity.Employees, store, st)
		for i := 0; i+1 < len(out); i++ {
			c := view.Compare(entity.Employees, out[i], out[i+1], st.SortKey, st.Direction)
			assert.LessOrEqual(t, c, 0, "state %s: %s before %s", st, out[i].Name, out[i+1].Name)
		}
	}
}

func TestProjectDoesNotReorderInput(t *testing.T) {
	store := eight()
	before := ids(store)
	st := defaults().ToggleSort(entity.KeyProductivity)
	_ = view.Project(entity.Employees, store, st)
	assert.Equal(t, before, ids(store))
}

func TestClearFiltersReturnsFullStore(t *testing.T) {
	store := eight()
	dirty := defaults().WithSearch("x").WithCategory("Дизайн").ToggleStatus("busy")
	require.Empty(t, view.Project(entity.Employees, store, dirty))

	st := view.Clear(entity.Employees)
	out := view.Project(entity.Employees, store, st)
	assert.ElementsMatch(t, ids(store), ids(out))
	assert.Equal(t, defaults(), st)
}

func TestProjectEmptyStore(t *testing.T) {
	out := view.Project(entity.Employees, nil, defaults().WithSearch("a"))
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

// ─── Scenarios ────────────────────────────────────────────────────────────────

func TestScenarioNumericRange(t *testing.T) {
	st, err := view.SetRange(defaults(), entity.Employees, 0, 70)
	require.NoError(t, err)
	out := view.Project(entity.Employees, trio(), st)
	assert.Equal(t, []int{67}, productivities(out))
}

func TestScenarioStatusFilter(t *testing.T) {
	out := view.Project(entity.Employees, trio(), defaults().WithStatuses("online"))
	assert.Equal(t, []int{1, 2}, ids(out))
}

func TestScenarioCyrillicSearch(t *testing.T) {
	store := []model.Employee{
		emp(1, "Иван Петров", 85, model.StatusOnline),
		emp(2, "Мария Сидорова", 92, model.StatusOnline),
	}
	out := view.Project(entity.Employees, store, defaults().WithSearch("мари"))
	assert.Equal(t, []int{2}, ids(out))

	out = view.Project(entity.Employees, store, defaults().WithSearch("МАРИ"))
	assert.Equal(t, []int{2}, ids(out), "search is case-insensitive in both directions")
}

func TestScenarioSortToggle(t *testing.T) {
	st := defaults().ToggleSort(entity.KeyProductivity)
	require.Equal(t, view.Asc, st.Direction)
	assert.Equal(t, []int{67, 85, 92}, productivities(view.Project(entity.Employees, trio(), st)))

	st = st.ToggleSort(entity.KeyProductivity)
	require.Equal(t, view.Desc, st.Direction)
	assert.Equal(t, []int{92, 85, 67}, productivities(view.Project(entity.Employees, trio(), st)))

	st = st.ToggleSort(entity.KeyProductivity)
	assert.Equal(t, view.Asc, st.Direction)
}

// ─── Predicate ────────────────────────────────────────────────────────────────

func TestMatchesCategoryIsExact(t *testing.T) {
	e := emp(1, "Иван Петров", 85, model.StatusOnline)
	assert.True(t, view.Matches(entity.Employees, e, defaults().WithCategory("Разработка")))
	assert.False(t, view.Matches(entity.Employees, e, defaults().WithCategory("Разраб")))
}

func TestMatchesRangeIsInclusive(t *testing.T) {
	e := emp(1, "Иван Петров", 85, model.StatusOnline)
	st, err := view.SetRange(defaults(), entity.Employees, 85, 85)
	require.NoError(t, err)
	assert.True(t, view.Matches(entity.Employees, e, st))
}

func TestMatchesInvertedRangeMatchesNothing(t *testing.T) {
	st := defaults()
	st.Range = view.Range{Min: 80, Max: 20}
	for _, e := range eight() {
		assert.False(t, view.Matches(entity.Employees, e, st), "employee %d", e.ID)
	}
}

func TestMatchesSearchCoversEmailPositionDepartment(t *testing.T) {
	e := emp(1, "Иван Петров", 85, model.StatusOnline)
	e.Email = "ivan@company.com"
	e.Position = "Frontend разработчик"
	for _, q := range []string{"IVAN@", "frontend", "РАЗРАБОТКА", "петров"} {
		assert.True(t, view.Matches(entity.Employees, e, defaults().WithSearch(q)), "query %q", q)
	}
	assert.False(t, view.Matches(entity.Employees, e, defaults().WithSearch("мария")))
}

func TestMatchesWhitespaceQueryIsNotTrimmed(t *testing.T) {
	single := emp(1, "Иван", 85, model.StatusOnline)
	single.Position = "Инженер"
	single.Department = "QA"
	single.Email = "ivan@company.com"
	assert.False(t, view.Matches(entity.Employees, single, defaults().WithSearch(" ")))

	spaced := emp(2, "Иван Петров", 85, model.StatusOnline)
	assert.True(t, view.Matches(entity.Employees, spaced, defaults().WithSearch(" ")))
}

func TestMatchesDates(t *testing.T) {
	e := emp(1, "Иван Петров", 85, model.StatusOnline)
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	in := defaults().WithDates(view.Dates{From: day, To: day.Add(24*time.Hour - time.Nanosecond)})
	assert.True(t, view.Matches(entity.Employees, e, in))

	after := defaults().WithDates(view.Dates{From: day.AddDate(0, 0, 1)})
	assert.False(t, view.Matches(entity.Employees, e, after))

	before := defaults().WithDates(view.Dates{To: day})
	assert.False(t, view.Matches(entity.Employees, e, before))
}

// ─── Comparator ───────────────────────────────────────────────────────────────

func TestCompareCyrillicCollation(t *testing.T) {
	out := view.Project(entity.Employees, eight(), defaults())
	names := make([]string, len(out))
	for i, e := range out {
		names[i] = e.Name
	}
	assert.Equal(t, []string{
		"Алексей Иванов",
		"Анна Ковалева",
		"Дмитрий Смирнов",
		"Екатерина Волкова",
		"Иван Петров",
		"Мария Сидорова",
		"Ольга Кузнецова",
		"Сергей Васильев",
	}, names)
}

func TestCompareTieBreaksOnAscendingID(t *testing.T) {
	store := []model.Employee{
		emp(3, "C", 70, model.StatusOnline),
		emp(1, "A", 70, model.StatusOnline),
		emp(2, "B", 70, model.StatusOnline),
	}
	asc := defaults().ToggleSort(entity.KeyProductivity)
	assert.Equal(t, []int{1, 2, 3}, ids(view.Project(entity.Employees, store, asc)))

	desc := asc.ToggleSort(entity.KeyProductivity)
	assert.Equal(t, []int{1, 2, 3}, ids(view.Project(entity.Employees, store, desc)))
}

func TestCompareValues(t *testing.T) {
	a := emp(1, "Анна", 40, model.StatusOnline)
	b := emp(2, "Борис", 60, model.StatusOnline)
	assert.Equal(t, -1, view.Compare(entity.Employees, a, b, entity.KeyProductivity, view.Asc))
	assert.Equal(t, 1, view.Compare(entity.Employees, a, b, entity.KeyProductivity, view.Desc))
	assert.Equal(t, -1, view.Compare(entity.Employees, a, b, entity.KeyName, view.Asc))
	assert.Equal(t, 0, view.Compare(entity.Employees, a, a, entity.KeyName, view.Desc))
}

// ─── Reports ──────────────────────────────────────────────────────────────────

func TestProjectReportsByTypeAndDates(t *testing.T) {
	at := func(d int) time.Time { return time.Date(2024, 1, d, 18, 0, 0, 0, time.UTC) }
	reports := []model.Report{
		{ID: 1, Title: "Ежедневный", Type: model.ReportDaily, Status: model.ReportGenerated, GeneratedAt: at(15), Summary: model.ReportSummary{AverageProductivity: 78}},
		{ID: 2, Title: "Недельный", Type: model.ReportWeekly, Status: model.ReportGenerated, GeneratedAt: at(14), Summary: model.ReportSummary{AverageProductivity: 76}},
		{ID: 3, Title: "Месячный", Type: model.ReportMonthly, Status: model.ReportPending, GeneratedAt: at(31), Summary: model.ReportSummary{AverageProductivity: 77}},
	}
	st := view.NewState(entity.Reports)
	st, err := view.SetDates(st, view.Dates{From: at(1), To: at(20)})
	require.NoError(t, err)

	out := view.Project(entity.Reports, reports, st)
	require.Len(t, out, 2)
	assert.Equal(t, 2, out[0].ID, "default report order is generated_at ascending")

	out = view.Project(entity.Reports, reports, st.WithCategory("daily"))
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].ID)
}
