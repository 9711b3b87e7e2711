package modeldef

// modelSchema is the CUE contract every model definition file is unified
// against before decoding. Load errors therefore point at the offending
// definition rather than surfacing later as engine misbehavior.
const modelSchema = `
#ColumnType: "text" | "textarea" | "email" | "number" | "rating" | "date" |
	"boolean" | "select" | "multiselect" | "tags" | "image" | "compound" |
	"custom_fields" | "actions"

#Option: {
	value: string
	label: string
}

#SubField: {
	key:            string
	title?:         string
	description?:   string
	type?:          #ColumnType
	required?:      bool
	options?:       [...#Option]
	editable?:      bool
	used_in_create?: bool
}

#Compound: {
	image?:     #SubField
	primary:    [...#SubField]
	secondary?: #SubField
	metadata?:  [...#SubField]
}

#Column: {
	key:              string
	base_key?:        string
	title?:           string
	description?:     string
	type:             #ColumnType
	required?:        bool
	optional?:        bool
	min?:             number
	max?:             number
	options?:         [...#Option]
	options_endpoint?: string
	priority?:        int & >=1 & <=5
	expanded_only?:   bool
	sortable?:        bool
	compound?:        #Compound
}

#FieldRef: {
	key:           string
	compound_key?: string
	type?:         #ColumnType
	required?:     bool
	options?:      [...#Option]
	min?:          number
	max?:          number
	condition?:    string
}

#FormGroup: {
	title:      string
	priority?:  int
	condition?: string
	fields:     [...#FieldRef]
}

#Form: {
	groups: [...#FormGroup]
}

#Permissions: {
	access?: string
	view?:   string
	create?: string
	edit?:   string
	delete?: string
}

#Model: {
	name:           string
	title?:         string
	columns:        [...#Column]
	create_form?:   #Form
	edit_form?:     #Form
	permissions?:   #Permissions
	edit_condition?: string
	paranoid?:      bool
}

models: [string]: #Model
`
