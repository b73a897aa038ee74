package export

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/kastheco/tareas/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sample = []task.Task{
	{
		ID:          1,
		Description: `Comprar "pan"; y leche`,
		Priority:    task.PriorityAlta,
		CreatedAt:   task.NewTimestamp(time.Date(2025, 3, 14, 9, 26, 0, 0, time.UTC)),
	},
	{ID: 2, Description: "Pagar luz", Completed: true, Priority: task.PriorityBaja},
}

func TestCSV_Format(t *testing.T) {
	out, err := CSV(sample, Options{Location: time.UTC})
	require.NoError(t, err)

	s := string(out)
	require.True(t, strings.HasPrefix(s, "\uFEFF"), "starts with BOM")
	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(s, "\uFEFF"), "\r\n"), "\r\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id;descripcion;completada;prioridad;fechaCreacion", lines[0])
	assert.Equal(t, `1;"Comprar ""pan""; y leche";false;Alta;14/03/2025 09:26`, lines[1])
	assert.Equal(t, "2;Pagar luz;true;Baja;", lines[2], "zero time renders empty")
}

func TestCSV_CustomLayout(t *testing.T) {
	out, err := CSV(sample[:1], Options{TimeLayout: "2006-01-02", Location: time.UTC})
	require.NoError(t, err)
	assert.Contains(t, string(out), ";2025-03-14\r\n")
}

func TestJSON_PrettyArray(t *testing.T) {
	out, err := JSON(sample)
	require.NoError(t, err)
	assert.Contains(t, string(out), "\n  {\n    \"id\": 1,")

	var back []task.Task
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Len(t, back, 2)

	empty, err := JSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(empty))
}

func TestMarkdown_EscapesPipes(t *testing.T) {
	md := Markdown([]task.Task{{ID: 3, Description: "a|b", Completed: true, Priority: task.PriorityMedia}}, Options{})
	assert.Contains(t, md, `| [x] | 3 | a\|b | Media |  |`)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("Markdown")
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)

	assert.Equal(t, "tareas-20260102-150405.csv", FileName(FormatCSV, time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)))
}

func TestRender_Dispatch(t *testing.T) {
	for _, f := range []Format{FormatCSV, FormatJSON, FormatMarkdown} {
		out, err := Render(f, sample, Options{})
		require.NoError(t, err, f)
		assert.NotEmpty(t, out)
	}
	_, err := Render("xml", sample, Options{})
	assert.Error(t, err)
}
