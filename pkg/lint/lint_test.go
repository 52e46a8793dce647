package lint

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/coolbeans/texlint/pkg/config"
	"github.com/coolbeans/texlint/pkg/report"
)

func newTestRunner(t *testing.T) (*Runner, *report.Logger) {
	t.Helper()
	log := report.NewLogger(&bytes.Buffer{}, &bytes.Buffer{})
	return NewRunner(config.Default(), log), log
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestResolveOrdersBibliographyLast(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "links.tex"), "")
	writeFile(t, filepath.Join(dir, "intro.tex"), "")
	writeFile(t, filepath.Join(dir, "sub", "tech_part.tex"), "")
	writeFile(t, filepath.Join(dir, "notes.txt"), "")

	r, _ := newTestRunner(t)
	files := r.Resolve([]string{dir})

	want := []string{
		filepath.Join(dir, "intro.tex"),
		filepath.Join(dir, "sub", "tech_part.tex"),
		filepath.Join(dir, "links.tex"),
	}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("Resolve = %v\nwant %v", files, want)
	}
}

func TestResolveSkipsNonTexFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	writeFile(t, path, "")

	r, log := newTestRunner(t)
	files := r.Resolve([]string{path})
	if len(files) != 0 {
		t.Errorf("non-.tex file resolved: %v", files)
	}
	if log.Warnings() != 1 {
		t.Errorf("got %d warnings, want 1", log.Warnings())
	}
}

func TestResolveMissingPath(t *testing.T) {
	r, log := newTestRunner(t)
	files := r.Resolve([]string{filepath.Join(t.TempDir(), "absent")})
	if len(files) != 0 {
		t.Errorf("missing path resolved: %v", files)
	}
	if !log.HadErrors() {
		t.Error("missing path must be reported as an error")
	}
}

func TestResolveDeduplicates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "intro.tex")
	writeFile(t, path, "")

	r, _ := newTestRunner(t)
	files := r.Resolve([]string{path, dir})
	if len(files) != 1 {
		t.Errorf("duplicate paths resolved: %v", files)
	}
}

const introDoc = `Методы описаны в~\cite{second} и~\cite{first}.

Свойства алгоритма:
\begin{itemize}
	\item Первое свойство
	\item Второе свойство
\end{itemize}
`

const linksDoc = `\begin{thebibliography}{9}

\bibitem{first}
Иванов И. И. Название статьи // Журнал вычислительной математики. --- 2020. --- Т. 5. --- № 3. --- С. 45--67.

\bibitem{second}
Петров П. П. Вторая статья // Журнал вычислительной математики. --- 2021. --- Т. 6. --- № 1. --- С. 5--17.

\end{thebibliography}
`

func TestRunRewritesAndReorders(t *testing.T) {
	dir := t.TempDir()
	intro := filepath.Join(dir, "intro.tex")
	links := filepath.Join(dir, "links.tex")
	writeFile(t, intro, introDoc)
	writeFile(t, links, linksDoc)

	r, log := newTestRunner(t)
	if hadErr := r.Run([]string{dir}); hadErr {
		t.Fatalf("Run reported errors, logger: %d", log.Errors())
	}

	gotIntro := readFile(t, intro)
	if !strings.Contains(gotIntro, `\item первое свойство;`) {
		t.Errorf("list not rewritten:\n%s", gotIntro)
	}
	if !strings.Contains(gotIntro, `\item второе свойство.`) {
		t.Errorf("final item not rewritten:\n%s", gotIntro)
	}

	gotLinks := readFile(t, links)
	if strings.Index(gotLinks, `\bibitem{second}`) > strings.Index(gotLinks, `\bibitem{first}`) {
		t.Errorf("bibliography not reordered to citation order:\n%s", gotLinks)
	}
}

func TestRunIdempotent(t *testing.T) {
	dir := t.TempDir()
	intro := filepath.Join(dir, "intro.tex")
	links := filepath.Join(dir, "links.tex")
	writeFile(t, intro, introDoc)
	writeFile(t, links, linksDoc)

	r, _ := newTestRunner(t)
	r.Run([]string{dir})
	afterFirst := readFile(t, intro) + "\x00" + readFile(t, links)

	// The session resets between runs, so a second pass must work and
	// change nothing.
	r2, _ := newTestRunner(t)
	if hadErr := r2.Run([]string{dir}); hadErr {
		t.Fatal("second run reported errors")
	}
	afterSecond := readFile(t, intro) + "\x00" + readFile(t, links)
	if afterFirst != afterSecond {
		t.Errorf("second run changed files:\nfirst:  %q\nsecond: %q", afterFirst, afterSecond)
	}
}

func TestRunReportsForbiddenWords(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "intro.tex"), "Рассмотрим алгоритм.\n")

	r, log := newTestRunner(t)
	if hadErr := r.Run([]string{dir}); !hadErr {
		t.Error("forbidden word must fail the run")
	}
	if !log.HadErrors() {
		t.Error("forbidden word not logged as an error")
	}
}

func TestRunEmptyWorklist(t *testing.T) {
	r, log := newTestRunner(t)
	if hadErr := r.Run([]string{t.TempDir()}); hadErr {
		t.Error("empty directory must not fail")
	}
	if log.HadErrors() {
		t.Error("empty directory produced errors")
	}
}

func TestRunCleanAfterFailedRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "intro.tex")
	writeFile(t, path, "Рассмотрим алгоритм.\n")

	r, _ := newTestRunner(t)
	if hadErr := r.Run([]string{dir}); !hadErr {
		t.Fatal("forbidden word must fail the run")
	}

	// Only errors from the current run decide its outcome.
	writeFile(t, path, "Изучим алгоритм.\n")
	if hadErr := r.Run([]string{dir}); hadErr {
		t.Error("clean re-run reported a failure from the previous run")
	}
}

func TestRunSameSessionTwice(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "intro.tex"), introDoc)
	writeFile(t, filepath.Join(dir, "links.tex"), linksDoc)

	r, _ := newTestRunner(t)
	if hadErr := r.Run([]string{dir}); hadErr {
		t.Fatal("first run failed")
	}
	// Reset inside Run re-opens the citation session.
	if hadErr := r.Run([]string{dir}); hadErr {
		t.Error("re-running the same runner failed")
	}
}
