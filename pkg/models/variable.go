package models

// VariableType is the declared type of a workflow variable.
type VariableType string

const (
	VariableTypeString  VariableType = "STRING"
	VariableTypeNumber  VariableType = "NUMBER"
	VariableTypeBoolean VariableType = "BOOLEAN"
	VariableTypeObject  VariableType = "OBJECT"
	VariableTypeArray   VariableType = "ARRAY"
	VariableTypeDate    VariableType = "DATE"
)

// GlobalParent marks variables that come from the workflow inputs.
const GlobalParent = "global"

// VariableDef describes a variable visible to a node. Parent is the id of
// the node that produces it, or GlobalParent.
type VariableDef struct {
	Name         string       `json:"name"                   validate:"required"`
	Type         VariableType `json:"type,omitempty"         validate:"omitempty,oneof=STRING NUMBER BOOLEAN OBJECT ARRAY DATE"`
	Description  string       `json:"description,omitempty"`
	DefaultValue any          `json:"defaultValue,omitempty"`
	Parent       string       `json:"parent,omitempty"`
}

// Key identifies a variable within a context list.
func (v VariableDef) Key() string {
	return v.Parent + "." + v.Name
}

func (v VariableDef) Clone() VariableDef {
	v.DefaultValue = cloneValue(v.DefaultValue)

	return v
}

// FieldDef describes a declared input or output of a workflow or tool.
type FieldDef struct {
	Name         string       `json:"name,omitempty"`
	Description  string       `json:"description,omitempty"`
	Type         VariableType `json:"type,omitempty"         validate:"omitempty,oneof=STRING NUMBER BOOLEAN OBJECT ARRAY DATE"`
	Required     bool         `json:"required,omitempty"`
	DefaultValue any          `json:"defaultValue,omitempty"`
}

func (f FieldDef) Clone() FieldDef {
	f.DefaultValue = cloneValue(f.DefaultValue)

	return f
}

// Variable converts the field into a variable produced by parent.
func (f FieldDef) Variable(name, parent string) VariableDef {
	if f.Name != "" {
		name = f.Name
	}

	return VariableDef{
		Name:         name,
		Type:         f.Type,
		Description:  f.Description,
		DefaultValue: cloneValue(f.DefaultValue),
		Parent:       parent,
	}
}

// ToolDefinition declares a callable tool and its inputs and outputs.
type ToolDefinition struct {
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Inputs      map[string]FieldDef `json:"inputs,omitempty"      validate:"dive"`
	Outputs     map[string]FieldDef `json:"outputs,omitempty"     validate:"dive"`
}

func (t ToolDefinition) Clone() ToolDefinition {
	t.Inputs = cloneFields(t.Inputs)
	t.Outputs = cloneFields(t.Outputs)

	return t
}

// OperandType tells whether a condition operand names a variable or holds a constant.
type OperandType string

const (
	OperandVariable OperandType = "VARIABLE"
	OperandConstant OperandType = "CONSTANT"
)

// Condition is a single comparison inside a ConditionCase.
type Condition struct {
	LeftOperand  VariableDef `json:"leftOperand"`
	Operator     string      `json:"operator"`
	RightOperand VariableDef `json:"rightOperand"`
	Type         OperandType `json:"type,omitempty"`
}

// ConditionCase is one branch of a CONDITION node; its conditions are
// joined with Type ("and" or "or").
type ConditionCase struct {
	Conditions []Condition `json:"conditions"`
	Type       string      `json:"type,omitempty" validate:"omitempty,oneof=and or"`
	Hint       string      `json:"hint,omitempty"`
}

func (c ConditionCase) Clone() ConditionCase {
	if c.Conditions != nil {
		conditions := make([]Condition, len(c.Conditions))
		for i, cond := range c.Conditions {
			cond.LeftOperand = cond.LeftOperand.Clone()
			cond.RightOperand = cond.RightOperand.Clone()
			conditions[i] = cond
		}

		c.Conditions = conditions
	}

	return c
}
