package models

type QuestionType string

const (
	TypePersonal       QuestionType = "personal"
	TypeEmail          QuestionType = "email"
	TypePhone          QuestionType = "phone"
	TypeName           QuestionType = "name"
	TypeSkills         QuestionType = "skills"
	TypeExperience     QuestionType = "experience"
	TypeEducation      QuestionType = "education"
	TypeLanguages      QuestionType = "languages"
	TypeLanguageLevel  QuestionType = "language_level"
	TypeCertifications QuestionType = "certifications"
	TypeVisa           QuestionType = "visa"
	TypeSalary         QuestionType = "salary"
	TypeNotice         QuestionType = "notice"
	TypeNoticePeriod   QuestionType = "notice_period"
	TypeStartDate      QuestionType = "start_date"
	TypeDecimal        QuestionType = "decimal"
	TypeDegree         QuestionType = "degree"
	TypeSkillLevel     QuestionType = "skill_level"
	TypeGeneral        QuestionType = "general"
)

// AllQuestionTypes lists every tag in declaration order.
var AllQuestionTypes = []QuestionType{
	TypePersonal, TypeEmail, TypePhone, TypeName, TypeSkills, TypeExperience,
	TypeEducation, TypeLanguages, TypeLanguageLevel, TypeCertifications, TypeVisa,
	TypeSalary, TypeNotice, TypeNoticePeriod, TypeStartDate, TypeDecimal,
	TypeDegree, TypeSkillLevel, TypeGeneral,
}

// IsNoticeLike covers the notice/start-date family.
func (t QuestionType) IsNoticeLike() bool {
	return t == TypeNotice || t == TypeNoticePeriod || t == TypeStartDate
}

// IsNumeric covers the tags whose answers may be bare numeric literals.
func (t QuestionType) IsNumeric() bool {
	return t == TypeDecimal || t == TypeExperience
}
