package lms

import "strconv"

// FilterText returns the searchable text summary of an entity, recomputed on
// every read from its identifying attributes.

func (l *LMS) FilterText() string        { return l.Name + " " + l.Host }
func (cat *Category) FilterText() string { return cat.Name + " " + strconv.Itoa(cat.ID) }
func (crs *Course) FilterText() string   { return crs.Name + " " + strconv.Itoa(crs.ID) }
func (sec *Section) FilterText() string  { return sec.Name + " " + strconv.Itoa(sec.ID) }
func (mod *Module) FilterText() string   { return mod.Name + " " + mod.ModName }
func (cnt *Content) FilterText() string  { return cnt.FileName + " " + cnt.FileType }
func (grp *UsersGroup) FilterText() string {
	return grp.Name + " " + strconv.Itoa(grp.ID)
}

func (usr *User) FilterText() string {
	return usr.FirstName + " " + usr.LastName + " " + usr.DisplayName() + " " +
		usr.Username + " " + usr.Email + " " + strconv.Itoa(usr.ID)
}

// Field is one row of an entity's generic inspector table: a display name and
// an accessor for the current value.
type Field struct {
	Name  string
	Value func() string
}

func (l *LMS) Fields() []Field {
	return []Field{
		{"Name", func() string { return l.Name }},
		{"Host", func() string { return l.Host }},
		{"Username", func() string { return l.Username }},
		{"Service", func() string { return l.Service }},
		{"Connected", func() string { return strconv.FormatBool(l.IsConnected()) }},
	}
}

func (cat *Category) Fields() []Field {
	return []Field{
		{"ID", func() string { return strconv.Itoa(cat.ID) }},
		{"Name", func() string { return cat.Name }},
		{"Parent category", func() string { return strconv.Itoa(cat.ParentID) }},
		{"Courses", func() string { return strconv.Itoa(len(cat.Courses)) }},
		{"Sub-categories", func() string { return strconv.Itoa(len(cat.SubCategories)) }},
	}
}

func (crs *Course) Fields() []Field {
	return []Field{
		{"ID", func() string { return strconv.Itoa(crs.ID) }},
		{"Name", func() string { return crs.Name }},
		{"Full name", func() string { return crs.FullName }},
		{"Short name", func() string { return crs.ShortName }},
		{"Group mode", func() string { return strconv.Itoa(crs.GroupMode) }},
		{"Enrolled users", func() string { return strconv.Itoa(len(crs.EnrolledUsers)) }},
	}
}

func (sec *Section) Fields() []Field {
	return []Field{
		{"ID", func() string { return strconv.Itoa(sec.ID) }},
		{"Name", func() string { return sec.Name }},
		{"Number", func() string { return strconv.Itoa(sec.Number) }},
		{"Modules", func() string { return strconv.Itoa(len(sec.Modules)) }},
	}
}

func (mod *Module) Fields() []Field {
	return []Field{
		{"ID", func() string { return strconv.Itoa(mod.ID) }},
		{"Name", func() string { return mod.Name }},
		{"Type", func() string { return mod.ModName }},
		{"Contents", func() string { return strconv.Itoa(len(mod.Contents)) }},
	}
}

func (cnt *Content) Fields() []Field {
	return []Field{
		{"File name", func() string { return cnt.FileName }},
		{"File type", func() string { return cnt.FileType }},
		{"MIME type", func() string { return cnt.MimeType }},
		{"URL", func() string { return cnt.FileURL }},
	}
}

func (usr *User) Fields() []Field {
	return []Field{
		{"ID", func() string { return strconv.Itoa(usr.ID) }},
		{"First name", func() string { return usr.FirstName }},
		{"Last name", func() string { return usr.LastName }},
		{"Full name", func() string { return usr.DisplayName() }},
		{"Username", func() string { return usr.Username }},
		{"Email", func() string { return usr.Email }},
	}
}

func (grp *UsersGroup) Fields() []Field {
	return []Field{
		{"ID", func() string { return strconv.Itoa(grp.ID) }},
		{"Name", func() string { return grp.Name }},
		{"Members", func() string { return strconv.Itoa(len(grp.Users)) }},
	}
}
