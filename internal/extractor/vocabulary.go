package extractor

// Vocabulary 技能词表，按检测输出顺序排列
type Vocabulary struct {
	Technical []string
	Soft      []string
}

// DefaultVocabulary 返回默认词表的副本
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Technical: append([]string(nil), technicalSkills...),
		Soft:      append([]string(nil), softSkills...),
	}
}

var technicalSkills = []string{
	"javascript", "react", "typescript", "node", "nodejs", "html", "css", "sass", "less",
	"python", "java", "c++", "c#", ".net", "sql", "mysql", "postgresql", "mongodb", "nosql",
	"aws", "azure", "gcp", "cloud", "git", "docker", "kubernetes", "ci/cd", "jenkins",
	"redux", "graphql", "rest", "api", "express", "vue", "angular", "svelte", "nextjs",
	"gatsby", "flutter", "swift", "kotlin", "php", "laravel", "spring", "django",
	"ruby", "rails", "golang", "rust", "scala", "terraform", "devops", "agile", "scrum",
	"jira", "figma", "sketch", "adobe", "photoshop", "illustrator", "ui/ux", "seo",
	"analytics", "marketing", "excel", "tableau", "power bi", "data analysis", "machine learning",
	"artificial intelligence", "ai", "nlp", "computer vision", "deep learning",
}

var softSkills = []string{
	"communication", "teamwork", "leadership", "problem solving", "problem-solving",
	"time management", "adaptability", "creativity", "critical thinking",
	"conflict resolution", "negotiation", "presentation", "public speaking",
	"mentoring", "coaching", "collaboration", "decision making", "decision-making",
	"planning", "organization", "analytical", "research", "detail oriented", "detail-oriented",
	"innovative", "motivated", "proactive", "interpersonal", "multitasking",
	"customer service", "project management", "team player", "self-motivated",
	"flexible", "resourceful", "strategic thinking", "strategic-thinking",
}
