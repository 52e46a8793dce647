package texdoc

import (
	"reflect"
	"strings"
	"testing"
)

func TestListBegin(t *testing.T) {
	tests := []struct {
		name string
		line string
		kind ListKind
		ok   bool
	}{
		{"itemize", `\begin{itemize}`, ListItemize, true},
		{"enumerate indented", `    \begin{enumerate}`, ListEnumerate, true},
		{"itemize with options", `\begin{itemize}[noitemsep]`, ListItemize, true},
		{"plain text", "Перечень свойств:", "", false},
		{"other environment", `\begin{equation}`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := ListBegin(tt.line)
			if ok != tt.ok || kind != tt.kind {
				t.Errorf("ListBegin(%q) = (%q, %v), want (%q, %v)", tt.line, kind, ok, tt.kind, tt.ok)
			}
		})
	}
}

func TestIsListEnd(t *testing.T) {
	if !IsListEnd(`	\end{itemize}`, ListItemize) {
		t.Error("indented \\end{itemize} not recognized")
	}
	if IsListEnd(`\end{itemize}`, ListEnumerate) {
		t.Error("\\end{itemize} must not close an enumerate")
	}
}

func TestItemMarker(t *testing.T) {
	tests := []struct {
		name string
		line string
		want int
	}{
		{"plain item", `\item текст`, 0},
		{"indented item", `	\item текст`, 1},
		{"itemsep is not an item", `\itemsep0.5em`, -1},
		{"itemsep then item", `\itemsep0em \item текст`, 12},
		{"no item", "обычная строка", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ItemMarker(tt.line); got != tt.want {
				t.Errorf("ItemMarker(%q) = %d, want %d", tt.line, got, tt.want)
			}
		})
	}
}

func TestItemBody(t *testing.T) {
	line := `	\item   первый пункт`
	pos := ItemMarker(line)
	if got, want := ItemBody(line, pos), "первый пункт"; got != want {
		t.Errorf("ItemBody = %q, want %q", got, want)
	}
}

func TestEndsInMath(t *testing.T) {
	tests := []struct {
		name string
		s    string
		want bool
	}{
		{"closed dollars", `значение $x$`, false},
		{"open dollar", `значение $x = 1`, true},
		{"closed display", `\[x\] завершено`, false},
		{"open display", `начало \[x = 1`, true},
		{"open inline paren", `формула \(a + b`, true},
		{"escaped dollar", `цена \$5`, false},
		{"double dollars closed", `$$x$$`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EndsInMath(tt.s); got != tt.want {
				t.Errorf("EndsInMath(%q) = %v, want %v", tt.s, got, tt.want)
			}
		})
	}
}

func TestHasBareColon(t *testing.T) {
	tests := []struct {
		name string
		s    string
		want bool
	}{
		{"plain colon", "время: секунды", true},
		{"colon in ref argument", `см. рисунок~\ref{fig:one}`, false},
		{"colon after ref", `см. рисунок~\ref{fig:one}: описание`, true},
		{"escaped colon", `интервал\: широкий`, false},
		{"no colon", "обычный текст", false},
		{"nested braces", `\mbox{a{b:c}d} текст`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasBareColon(tt.s); got != tt.want {
				t.Errorf("HasBareColon(%q) = %v, want %v", tt.s, got, tt.want)
			}
		})
	}
}

func TestCitations(t *testing.T) {
	text := `Как показано в~\cite{ivanov2020}, а также в~\cite{petrov2019, sidorov2021},
метод применим. Повторная ссылка~\cite{ivanov2020}.`

	want := []string{"ivanov2020", "petrov2019", "sidorov2021", "ivanov2020"}
	if got := Citations(text); !reflect.DeepEqual(got, want) {
		t.Errorf("Citations = %v, want %v", got, want)
	}

	if got := Citations("без ссылок"); got != nil {
		t.Errorf("Citations on plain text = %v, want nil", got)
	}
}

const sampleBib = `Преамбула.

\begin{thebibliography}{9}

\bibitem{first}
Первый источник.

\bibitem{second}
Второй источник,
продолжение на второй строке.

\end{thebibliography}

Хвост.`

func TestBibEnv(t *testing.T) {
	start, end, ok := BibEnv(sampleBib)
	if !ok {
		t.Fatal("BibEnv: environment not found")
	}
	if !strings.HasPrefix(sampleBib[start:], `\begin{thebibliography}`) {
		t.Errorf("span does not start at the begin marker: %q", sampleBib[start:start+30])
	}
	if !strings.HasPrefix(sampleBib[end:], `\end{thebibliography}`) {
		t.Errorf("span does not end at the end marker: %q", sampleBib[end:end+10])
	}

	if _, _, ok := BibEnv("нет окружения"); ok {
		t.Error("BibEnv found an environment in plain text")
	}
}

func TestSplitBibEntriesLossless(t *testing.T) {
	start, end, ok := BibEnv(sampleBib)
	if !ok {
		t.Fatal("BibEnv: environment not found")
	}
	env := sampleBib[start:end]

	preamble, entries := SplitBibEntries(env)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Key != "first" || entries[1].Key != "second" {
		t.Errorf("keys = %q, %q", entries[0].Key, entries[1].Key)
	}

	parts := []string{preamble}
	for _, e := range entries {
		parts = append(parts, e.Text)
	}
	if rebuilt := strings.Join(parts, "\n"); rebuilt != env {
		t.Errorf("rebuilt environment differs from input:\n got: %q\nwant: %q", rebuilt, env)
	}
}

func TestParseBibItem(t *testing.T) {
	tests := []struct {
		name    string
		entry   string
		key     string
		content string
		ok      bool
	}{
		{"inline content", `\bibitem{key1} Текст.`, "key1", "Текст.", true},
		{"content on next line", "\\bibitem{key2}\nТекст.", "key2", "Текст.", true},
		{"empty key", `\bibitem{} Текст.`, "", "", false},
		{"no braces", `\bibitem key`, "", "", false},
		{"not an item", "обычная строка", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, content, ok := ParseBibItem(tt.entry)
			if ok != tt.ok || key != tt.key {
				t.Errorf("ParseBibItem(%q) = (%q, _, %v), want (%q, _, %v)", tt.entry, key, ok, tt.key, tt.ok)
			}
			if ok && !strings.HasPrefix(content, tt.content) {
				t.Errorf("content = %q, want prefix %q", content, tt.content)
			}
		})
	}
}

func TestFirstWord(t *testing.T) {
	tests := []struct {
		s, want string
	}{
		{"первое слово", "первое"},
		{"АБВГ-метод применён", "АБВГ-метод"},
		{"x, затем текст", "x"},
		{"слово", "слово"},
		{`\textbf{жирный}`, ""},
	}

	for _, tt := range tests {
		if got := FirstWord(tt.s); got != tt.want {
			t.Errorf("FirstWord(%q) = %q, want %q", tt.s, got, tt.want)
		}
	}
}

func TestStartsWithMarkup(t *testing.T) {
	tests := []struct {
		s    string
		want bool
	}{
		{`$x$ --- параметр`, true},
		{`\textit{курсив}`, true},
		{`<<$a$>> в кавычках`, true},
		{"обычный текст", false},
	}

	for _, tt := range tests {
		if got := StartsWithMarkup(tt.s); got != tt.want {
			t.Errorf("StartsWithMarkup(%q) = %v, want %v", tt.s, got, tt.want)
		}
	}
}
