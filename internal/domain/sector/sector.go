package sector

// Sector is a taxonomy node ("field") grouping technologies. ID is a stable slug such as "computer-science".
type Sector struct {
	ID          string   `bson:"_id" json:"_id" yaml:"id"`
	Name        string   `bson:"name" json:"name" yaml:"name"`
	Description string   `bson:"description" json:"description" yaml:"description"`
	Icon        string   `bson:"icon,omitempty" json:"icon,omitempty" yaml:"icon"`
	Color       string   `bson:"color,omitempty" json:"color,omitempty" yaml:"color"`
	Order       int      `bson:"order" json:"order" yaml:"order"`
	Categories  []string `bson:"categories" json:"categories" yaml:"categories"`
}
