package fields

import (
	"regexp"
	"sort"
	"strings"
)

// Taxonomy maps canonical skill names to the aliases recognized in resume text.
// Entries starting with `\b` are used as raw patterns.
var Taxonomy = map[string][]string{
	// Languages
	"Python":     {"python", "py"},
	"Java":       {"java"},
	"JavaScript": {"javascript", "js", "ecmascript"},
	"TypeScript": {"typescript", "ts"},
	"C++":        {"c++", "cpp", "cplusplus"},
	"C#":         {"c#", "csharp", "c sharp"},
	"PHP":        {"php"},
	"Ruby":       {"ruby", "rails"},
	"Go":         {"golang", "go"},
	"Rust":       {"rust"},
	"Swift":      {"swift"},
	"Kotlin":     {"kotlin"},
	"Scala":      {"scala"},
	"R":          {`\br\b`},

	// Web
	"React":     {"react", "reactjs", "react.js"},
	"Angular":   {"angular", "angularjs"},
	"Vue":       {"vue", "vuejs", "vue.js"},
	"Next.js":   {"next.js", "nextjs", "next"},
	"Node.js":   {"node", "nodejs", "node.js"},
	"Express":   {"express", "expressjs", "express.js"},
	"Django":    {"django"},
	"Flask":     {"flask"},
	"FastAPI":   {"fastapi", "fast api"},
	"Spring":    {"spring", "spring boot", "springboot"},
	"ASP.NET":   {"asp.net", "aspnet", "asp net"},
	"HTML":      {"html", "html5"},
	"CSS":       {"css", "css3"},
	"Tailwind":  {"tailwind", "tailwindcss"},
	"Bootstrap": {"bootstrap"},
	"jQuery":    {"jquery"},

	// Databases
	"MySQL":         {"mysql", "my sql"},
	"PostgreSQL":    {"postgresql", "postgres", "psql"},
	"MongoDB":       {"mongodb", "mongo"},
	"Redis":         {"redis"},
	"Oracle":        {"oracle", "oracle db"},
	"SQL Server":    {"sql server", "mssql", "ms sql"},
	"SQLite":        {"sqlite"},
	"Cassandra":     {"cassandra"},
	"Elasticsearch": {"elasticsearch", "elastic search", "elastic"},
	"DynamoDB":      {"dynamodb", "dynamo"},

	// Cloud and DevOps
	"AWS":        {"aws", "amazon web services"},
	"Azure":      {"azure", "microsoft azure"},
	"GCP":        {"gcp", "google cloud", "google cloud platform"},
	"Docker":     {"docker", "containerization"},
	"Kubernetes": {"kubernetes", "k8s"},
	"Jenkins":    {"jenkins"},
	"CI/CD":      {"ci/cd", "cicd", "continuous integration", "continuous deployment"},
	"Terraform":  {"terraform"},
	"Ansible":    {"ansible"},
	"Git":        {"git", "github", "gitlab", "bitbucket"},
	"Linux":      {"linux", "unix"},

	// APIs and architecture
	"REST API":      {"rest", "rest api", "restful", "restful api", "rest apis"},
	"GraphQL":       {"graphql", "graph ql"},
	"Microservices": {"microservices", "micro services", "microservice"},
	"SOAP":          {"soap"},
	"gRPC":          {"grpc"},

	// Data and ML
	"Machine Learning": {"machine learning", "ml", "artificial intelligence", "ai"},
	"Deep Learning":    {"deep learning", "neural network", "neural networks"},
	"TensorFlow":       {"tensorflow", "tensor flow"},
	"PyTorch":          {"pytorch", "torch"},
	"Scikit-learn":     {"scikit-learn", "sklearn", "scikit learn"},
	"Pandas":           {"pandas"},
	"NumPy":            {"numpy", "np"},
	"Keras":            {"keras"},
	"NLP":              {"nlp", "natural language processing"},
	"Computer Vision":  {"computer vision", "cv", "image processing"},

	// Testing
	"Jest":     {"jest"},
	"Pytest":   {"pytest", "py.test"},
	"JUnit":    {"junit"},
	"Selenium": {"selenium"},
	"Cypress":  {"cypress"},
	"Mocha":    {"mocha"},

	// Process and tools
	"Agile":   {"agile", "scrum", "kanban"},
	"JIRA":    {"jira"},
	"Postman": {"postman"},
}

type skillPattern struct {
	canonical string
	re        *regexp.Regexp
}

var (
	skillPatterns []skillPattern
	// alias (lowercase) -> canonical
	aliasIndex = map[string]string{}
)

func init() {
	canonicals := make([]string, 0, len(Taxonomy))
	for name := range Taxonomy {
		canonicals = append(canonicals, name)
	}
	sort.Strings(canonicals)

	for _, name := range canonicals {
		aliasIndex[strings.ToLower(name)] = name
		for _, alias := range Taxonomy[name] {
			pattern := alias
			if !strings.HasPrefix(alias, `\b`) {
				pattern = aliasPattern(alias)
				aliasIndex[alias] = name
			}
			skillPatterns = append(skillPatterns, skillPattern{
				canonical: name,
				re:        regexp.MustCompile(pattern),
			})
		}
	}
}

// aliasPattern anchors alias on word boundaries. An edge that ends in a symbol
// (the "+" of "c++") has no boundary to anchor on and is left open.
func aliasPattern(alias string) string {
	pattern := regexp.QuoteMeta(alias)
	if isWordByte(alias[0]) {
		pattern = `\b` + pattern
	}
	if isWordByte(alias[len(alias)-1]) {
		pattern += `\b`
	}
	return pattern
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// Canonical resolves a skill name or alias to its canonical taxonomy name, ignoring case.
func Canonical(skill string) (string, bool) {
	name, ok := aliasIndex[strings.ToLower(strings.TrimSpace(skill))]
	return name, ok
}

func matchSkills(lowerText string) []string {
	found := map[string]struct{}{}
	for _, p := range skillPatterns {
		if _, ok := found[p.canonical]; ok {
			continue
		}
		if p.re.MatchString(lowerText) {
			found[p.canonical] = struct{}{}
		}
	}
	skills := make([]string, 0, len(found))
	for name := range found {
		skills = append(skills, name)
	}
	sort.Strings(skills)
	return skills
}
