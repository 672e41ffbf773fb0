package views

import (
	"github.com/pavelanni/grader/internal/grading"
	"github.com/pavelanni/grader/internal/model"
)

// Form input names. Inputs that carry a value checked by the grading package
// are named after its field so inline errors line up with them.
const (
	QuestionsInput  = grading.QuestionCountField
	StudentsInput   = grading.StudentCountField
	CategoriesInput = "category"
	ReportTypeInput = "type"
	CSRFInput       = "csrf_token"
	GradebookInput  = "gradebook_file"
)

// SkillInput names the skill selector of question n.
func SkillInput(n int) string { return grading.QuestionField(n) + "_skill" }

// MaxMarksInput names the max-marks input of a rubric category.
func MaxMarksInput(skill model.Skill) string { return grading.CategoryField(skill) + "_max" }

// NameInput names the student name input of student s.
func NameInput(s int) string { return grading.StudentField(s) + "_name" }

// ClassInput names the class input of student s.
func ClassInput(s int) string { return grading.StudentField(s) + "_class" }

// TagsInput names the tag checkboxes that belong to a mark or question field.
func TagsInput(field string) string { return field + "_tags" }
