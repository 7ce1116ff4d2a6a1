package models

import (
	"reflect"
	"strings"
	"testing"
)

// gormTag extracts the gorm tag from a struct field.
func gormTag(t *testing.T, typ reflect.Type, fieldName string) string {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	return f.Tag.Get("gorm")
}

// assertGormTag checks that a struct field's gorm tag contains the expected value.
func assertGormTag(t *testing.T, typ reflect.Type, fieldName, expected string) {
	t.Helper()
	tag := gormTag(t, typ, fieldName)
	if !strings.Contains(tag, expected) {
		t.Errorf("%s.%s gorm tag = %q, want to contain %q", typ.Name(), fieldName, tag, expected)
	}
}

func TestUser_Fields(t *testing.T) {
	typ := reflect.TypeOf(User{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "Username", "uniqueIndex")
	assertGormTag(t, typ, "Username", "not null")
	assertGormTag(t, typ, "PasswordHash", "not null")
	assertGormTag(t, typ, "Estado", "size:2")
	assertGormTag(t, typ, "Cidade", "size:64")
}

func TestPerson_Fields(t *testing.T) {
	typ := reflect.TypeOf(Person{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "UserID", "not null")
	assertGormTag(t, typ, "Celular", "uniqueIndex")
	assertGormTag(t, typ, "ChatID", "index")
	assertGormTag(t, typ, "Role", "size:16")
}

func TestMachineManager_CompositeKey(t *testing.T) {
	typ := reflect.TypeOf(MachineManager{})

	assertGormTag(t, typ, "MachineID", "primaryKey")
	assertGormTag(t, typ, "GerenteID", "primaryKey")
}

func TestTaskTemplate_UniqueKey(t *testing.T) {
	typ := reflect.TypeOf(TaskTemplate{})

	// All four columns share one composite unique index — this is the
	// store-enforced per-combination generation guard.
	for _, field := range []string{"Model", "Cidade", "Estado", "Date"} {
		assertGormTag(t, typ, field, "uniqueIndex:idx_template_key")
	}
}

func TestTaskItem_DefaultStatus(t *testing.T) {
	typ := reflect.TypeOf(TaskItem{})

	assertGormTag(t, typ, "Status", "default:pendente")
	assertGormTag(t, typ, "AssignmentID", "not null")
	assertGormTag(t, typ, "AssignmentID", "index")
}

func TestTaskAssignment_ReportSentDefault(t *testing.T) {
	typ := reflect.TypeOf(TaskAssignment{})

	assertGormTag(t, typ, "ReportSent", "default:false")
	assertGormTag(t, typ, "Date", "index")
}

func TestTaskTemplate_TaskListRoundTrip(t *testing.T) {
	tasks := []string{
		"Verificar nível de óleo do motor.",
		"Inspecionar filtro de ar devido à poeira.",
		"Calibrar pneus para o solo seco.",
	}

	var tmpl TaskTemplate
	if err := tmpl.SetTasks(tasks); err != nil {
		t.Fatalf("SetTasks: %v", err)
	}
	got, err := tmpl.TaskList()
	if err != nil {
		t.Fatalf("TaskList: %v", err)
	}
	if !reflect.DeepEqual(got, tasks) {
		t.Errorf("round trip = %v, want %v", got, tasks)
	}
}

func TestTaskTemplate_TaskListRejectsGarbage(t *testing.T) {
	tmpl := TaskTemplate{Tasks: "['tarefa 1', eval(...)]"}
	if _, err := tmpl.TaskList(); err == nil {
		t.Error("TaskList accepted a non-JSON payload")
	}
}

func TestConversation_DraftRoundTrip(t *testing.T) {
	draft := PersonDraft{Name: "João Silva", Email: "joao@fazenda.br", Celular: "34988887777"}

	var conv Conversation
	if err := conv.SetDraft(draft); err != nil {
		t.Fatalf("SetDraft: %v", err)
	}
	got, err := conv.DraftData()
	if err != nil {
		t.Fatalf("DraftData: %v", err)
	}
	if got != draft {
		t.Errorf("round trip = %+v, want %+v", got, draft)
	}
}

func TestConversation_EmptyDraft(t *testing.T) {
	conv := Conversation{ChatID: "123", State: StateCollectName}
	got, err := conv.DraftData()
	if err != nil {
		t.Fatalf("DraftData on empty draft: %v", err)
	}
	if got != (PersonDraft{}) {
		t.Errorf("empty draft = %+v, want zero value", got)
	}
}

func TestValidRole(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{RoleGerente, true},
		{RoleMotorista, true},
		{"GERENTE", false}, // normalization happens at the input boundary
		{"operador", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidRole(tt.role); got != tt.want {
			t.Errorf("ValidRole(%q) = %v, want %v", tt.role, got, tt.want)
		}
	}
}
