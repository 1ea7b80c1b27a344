package analysis_test

import (
	"bytes"
	"context"

	"github.com/arxeiss/deadexports/analysis"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// fakeOracle implements analysis.Oracle from plain maps, so the classifier is
// exercised without any parsing engine.
type fakeOracle struct {
	files      []*analysis.SourceFile
	production []*analysis.SourceFile
	entries    []*analysis.SourceFile
	exports    map[string][]analysis.ExportGroup
	refs       map[string][]analysis.Reference
	types      map[*analysis.Declaration]string
	nsRefs     map[string][]analysis.Reference
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{
		exports: make(map[string][]analysis.ExportGroup),
		refs:    make(map[string][]analysis.Reference),
		types:   make(map[*analysis.Declaration]string),
		nsRefs:  make(map[string][]analysis.Reference),
	}
}

func (o *fakeOracle) ProjectFiles() []*analysis.SourceFile    { return o.files }
func (o *fakeOracle) ProductionFiles() []*analysis.SourceFile { return o.production }
func (o *fakeOracle) EntryFiles() []*analysis.SourceFile      { return o.entries }

func (o *fakeOracle) ExportsOf(file *analysis.SourceFile) []analysis.ExportGroup {
	return o.exports[file.Path]
}

func (o *fakeOracle) FindReferences(id *analysis.Ident) []analysis.Reference {
	return o.refs[id.Path+"#"+id.Text]
}

func (o *fakeOracle) ClassifyType(decl *analysis.Declaration) (string, bool) {
	sig, ok := o.types[decl]
	return sig, ok
}

func (o *fakeOracle) NamespaceReferences(file *analysis.SourceFile) []analysis.Reference {
	return o.nsRefs[file.Path]
}

func (o *fakeOracle) addFile(path string, entry, production bool) *analysis.SourceFile {
	file := &analysis.SourceFile{Path: path}
	o.files = append(o.files, file)
	if production {
		o.production = append(o.production, file)
	}
	if entry {
		o.entries = append(o.entries, file)
	}
	return file
}

// export adds a named export and returns its declaration, so tests can attach
// type signatures or reuse it for duplicate groups.
func (o *fakeOracle) export(file *analysis.SourceFile, name string) *analysis.Declaration {
	decl := &analysis.Declaration{
		Shape:  analysis.ShapeNamed,
		Idents: []*analysis.Ident{{Text: name, Path: file.Path}},
	}
	o.exports[file.Path] = append(o.exports[file.Path], analysis.ExportGroup{
		Name: name, Decls: []*analysis.Declaration{decl},
	})
	return decl
}

func (o *fakeOracle) ref(file *analysis.SourceFile, name string, paths ...string) {
	key := file.Path + "#" + name
	for _, path := range paths {
		o.refs[key] = append(o.refs[key], analysis.Reference{Path: path, Line: 1})
	}
}

// recordingSink captures progress updates for headless assertions.
type recordingSink struct {
	updates [][]string
	done    int
}

func (s *recordingSink) Update(lines []string) { s.updates = append(s.updates, lines) }
func (s *recordingSink) Done()                 { s.done++ }

var _ = Describe("Runner", func() {
	var (
		stdOut *bytes.Buffer
		stdErr *bytes.Buffer
		oracle *fakeOracle
	)

	BeforeEach(func() {
		stdOut = bytes.NewBuffer(nil)
		stdErr = bytes.NewBuffer(nil)
		oracle = newFakeOracle()
	})

	newRunner := func() *analysis.Runner {
		r := analysis.New(stdOut, stdErr, oracle)
		r.Cwd = "/proj"
		return r
	}

	It("fails on no oracle", func() {
		r := analysis.New(stdOut, stdErr, nil)
		_, err := r.Run(context.Background())
		Expect(err).To(MatchError("no oracle provided"))
	})

	It("reports unreachable files and self-referenced exports", func() {
		oracle.addFile("/proj/src/a.ts", true, true)
		b := oracle.addFile("/proj/src/b.ts", false, true)
		oracle.addFile("/proj/src/c.ts", false, false)

		oracle.export(b, "foo")
		oracle.export(b, "bar")
		oracle.ref(b, "foo", "/proj/src/b.ts")
		oracle.ref(b, "bar", "/proj/src/a.ts")

		report, err := newRunner().Run(context.Background())
		Expect(err).To(Succeed())

		Expect(report.Issues[analysis.CategoryFiles]["src/c.ts"]).To(HaveKey("src/c.ts"))
		Expect(report.Issues[analysis.CategoryExports]["src/b.ts"]).To(HaveKey("foo"))
		Expect(report.Counters.Files).To(Equal(1))
		Expect(report.Counters.Exports).To(Equal(1))
		Expect(report.Counters.Types).To(Equal(0))
		Expect(report.Counters.Processed).To(Equal(1))
	})

	It("skips files with a single unique export name", func() {
		oracle.addFile("/proj/src/index.ts", true, true)
		d := oracle.addFile("/proj/src/d.ts", false, true)
		oracle.export(d, "bar") // referenced nowhere

		report, err := newRunner().Run(context.Background())
		Expect(err).To(Succeed())

		Expect(report.Counters.IssueCount()).To(Equal(0))
		Expect(report.Counters.Processed).To(Equal(1), "skipped files still count as processed")
	})

	It("classifies zero-reference exports without consulting namespace usage", func() {
		oracle.addFile("/proj/src/index.ts", true, true)
		b := oracle.addFile("/proj/src/b.ts", false, true)
		oracle.export(b, "one")
		oracle.export(b, "two")
		oracle.nsRefs[b.Path] = []analysis.Reference{{Path: "/proj/src/index.ts", Line: 3}}

		report, err := newRunner().Run(context.Background())
		Expect(err).To(Succeed())

		Expect(report.Issues[analysis.CategoryExports]["src/b.ts"]).To(HaveKey("one"))
		Expect(report.Issues[analysis.CategoryExports]["src/b.ts"]).To(HaveKey("two"))
		Expect(report.Counters.Members).To(Equal(0))
	})

	It("prefers the namespace member category over the type category", func() {
		oracle.addFile("/proj/src/index.ts", true, true)
		b := oracle.addFile("/proj/src/b.ts", false, true)
		decl := oracle.export(b, "Options")
		oracle.export(b, "other")
		oracle.types[decl] = "interface Options"
		oracle.ref(b, "Options", b.Path)
		oracle.nsRefs[b.Path] = []analysis.Reference{{Path: "/proj/src/index.ts", Line: 3}}

		report, err := newRunner().Run(context.Background())
		Expect(err).To(Succeed())

		Expect(report.Issues[analysis.CategoryMembers]["src/b.ts"]).To(HaveKey("Options"))
		Expect(report.Issues[analysis.CategoryTypes]).To(BeEmpty())
	})

	It("falls back to the type category with the resolved signature", func() {
		oracle.addFile("/proj/src/index.ts", true, true)
		b := oracle.addFile("/proj/src/b.ts", false, true)
		decl := oracle.export(b, "Options")
		oracle.export(b, "other")
		oracle.types[decl] = "interface Options"
		oracle.ref(b, "Options", b.Path)

		report, err := newRunner().Run(context.Background())
		Expect(err).To(Succeed())

		iss := report.Issues[analysis.CategoryTypes]["src/b.ts"]["Options"]
		Expect(iss).NotTo(BeNil())
		Expect(iss.SymbolType).To(Equal("interface Options"))
		Expect(report.Issues[analysis.CategoryMembers]).To(BeEmpty())
	})

	It("reports duplicate export groups exactly once", func() {
		oracle.addFile("/proj/src/index.ts", true, true)
		b := oracle.addFile("/proj/src/b.ts", false, true)
		decl := oracle.export(b, "a")
		oracle.exports[b.Path] = append(oracle.exports[b.Path], analysis.ExportGroup{
			Name: "b", Decls: []*analysis.Declaration{decl},
		})
		oracle.export(b, "single")

		report, err := newRunner().Run(context.Background())
		Expect(err).To(Succeed())

		dups := report.Issues[analysis.CategoryDuplicates]["src/b.ts"]
		Expect(dups).To(HaveLen(1))
		Expect(dups).To(HaveKey("a,b"))
		Expect(dups["a,b"].Symbols).To(Equal([]string{"a", "b"}))
		Expect(report.Counters.Duplicates).To(Equal(1))
	})

	It("reports merged declarations once per symbol", func() {
		oracle.addFile("/proj/src/index.ts", true, true)
		b := oracle.addFile("/proj/src/b.ts", false, true)
		oracle.export(b, "f")
		second := &analysis.Declaration{
			Shape:  analysis.ShapeNamed,
			Idents: []*analysis.Ident{{Text: "f", Path: b.Path}},
		}
		oracle.exports[b.Path][0].Decls = append(oracle.exports[b.Path][0].Decls, second)
		oracle.types[second] = "interface f"
		oracle.export(b, "other")

		report, err := newRunner().Run(context.Background())
		Expect(err).To(Succeed())

		// The value declaration classifies first, the merged type
		// declaration must not produce a second issue.
		total := 0
		for _, cat := range []analysis.IssueCategory{
			analysis.CategoryExports, analysis.CategoryTypes, analysis.CategoryMembers,
		} {
			total += len(report.Issues[cat]["src/b.ts"])
		}
		Expect(report.Issues[analysis.CategoryExports]["src/b.ts"]).To(HaveKey("f"))
		Expect(total).To(Equal(2), `only "f" and "other" are reported`)
	})

	It("skips declarations without a locatable identifier", func() {
		oracle.addFile("/proj/src/index.ts", true, true)
		b := oracle.addFile("/proj/src/b.ts", false, true)
		oracle.exports[b.Path] = append(oracle.exports[b.Path], analysis.ExportGroup{
			Name:  "default",
			Decls: []*analysis.Declaration{{Shape: analysis.ShapeAnonymous}},
		})
		oracle.export(b, "other")

		report, err := newRunner().Run(context.Background())
		Expect(err).To(Succeed())

		Expect(report.Issues[analysis.CategoryExports]["src/b.ts"]).NotTo(HaveKey("default"))
		Expect(report.Issues[analysis.CategoryExports]["src/b.ts"]).To(HaveKey("other"))
	})

	It("honors the public marker when configured", func() {
		oracle.addFile("/proj/src/index.ts", true, true)
		b := oracle.addFile("/proj/src/b.ts", false, true)
		oracle.export(b, "kept").Public = true
		oracle.export(b, "reported")

		r := newRunner()
		r.RespectPublicFlag = true
		report, err := r.Run(context.Background())
		Expect(err).To(Succeed())

		Expect(report.Issues[analysis.CategoryExports]["src/b.ts"]).NotTo(HaveKey("kept"))
		Expect(report.Issues[analysis.CategoryExports]["src/b.ts"]).To(HaveKey("reported"))
	})

	It("ignores the public marker by default", func() {
		oracle.addFile("/proj/src/index.ts", true, true)
		b := oracle.addFile("/proj/src/b.ts", false, true)
		oracle.export(b, "kept").Public = true
		oracle.export(b, "reported")

		report, err := newRunner().Run(context.Background())
		Expect(err).To(Succeed())
		Expect(report.Issues[analysis.CategoryExports]["src/b.ts"]).To(HaveKey("kept"))
	})

	DescribeTable("category filter without member analysis",
		func(include map[analysis.IssueCategory]bool, expectTypes, expectExports int) {
			oracle.addFile("/proj/src/index.ts", true, true)
			b := oracle.addFile("/proj/src/b.ts", false, true)
			typeDecl := oracle.export(b, "Options")
			oracle.types[typeDecl] = "type Options"
			oracle.export(b, "value")

			r := newRunner()
			r.Include = include
			report, err := r.Run(context.Background())
			Expect(err).To(Succeed())

			Expect(report.Counters.Types).To(Equal(expectTypes))
			Expect(report.Counters.Exports).To(Equal(expectExports))
		},
		Entry("types disabled", map[analysis.IssueCategory]bool{
			analysis.CategoryExports: true,
		}, 0, 1),
		Entry("exports disabled", map[analysis.IssueCategory]bool{
			analysis.CategoryTypes: true,
		}, 1, 0),
		Entry("all unused-symbol categories disabled", map[analysis.IssueCategory]bool{
			analysis.CategoryFiles: true, analysis.CategoryDuplicates: true,
		}, 0, 0),
	)

	It("covers every file by exactly one partition side", func() {
		oracle.addFile("/proj/src/index.ts", true, true)
		oracle.addFile("/proj/src/used.ts", false, true)
		oracle.addFile("/proj/src/also_used.ts", false, true)
		oracle.addFile("/proj/src/orphan.ts", false, false)
		oracle.addFile("/proj/src/other_orphan.ts", false, false)

		report, err := newRunner().Run(context.Background())
		Expect(err).To(Succeed())

		Expect(report.Counters.Files).To(Equal(2))
		Expect(report.Counters.Processed).To(Equal(2))
		// 5 files total: 2 unused + 2 processed + 1 entry.
		Expect(len(oracle.files) - report.Counters.Files - report.Counters.Processed).To(Equal(1))
	})

	It("yields byte-identical output on re-runs", func() {
		oracle.addFile("/proj/src/index.ts", true, true)
		b := oracle.addFile("/proj/src/b.ts", false, true)
		decl := oracle.export(b, "Options")
		oracle.types[decl] = "type Options"
		oracle.ref(b, "Options", b.Path)
		oracle.export(b, "stale")
		oracle.addFile("/proj/src/orphan.ts", false, false)

		run := func() string {
			out := bytes.NewBuffer(nil)
			r := analysis.New(out, stdErr, oracle)
			r.Cwd = "/proj"
			r.JSONFlag = true
			_, err := r.Run(context.Background())
			Expect(err).To(Succeed())
			return out.String()
		}

		first := run()
		Expect(run()).To(Equal(first))
	})

	It("prints sorted text lines per category", func() {
		oracle.addFile("/proj/src/index.ts", true, true)
		b := oracle.addFile("/proj/src/b.ts", false, true)
		decl := oracle.export(b, "Options")
		oracle.types[decl] = "interface Options"
		oracle.ref(b, "Options", b.Path)
		oracle.export(b, "stale")
		oracle.addFile("/proj/src/orphan.ts", false, false)

		_, err := newRunner().Run(context.Background())
		Expect(err).To(Succeed())

		Expect(stdOut.String()).To(Equal(
			"unused file: src/orphan.ts\n" +
				"src/b.ts: unused export: stale\n" +
				"src/b.ts: unused type: Options (interface Options)\n",
		))
	})

	It("emits JSON with issues and counters", func() {
		oracle.addFile("/proj/src/index.ts", true, true)
		b := oracle.addFile("/proj/src/b.ts", false, true)
		oracle.export(b, "stale")
		oracle.export(b, "other")
		oracle.ref(b, "other", "/proj/src/index.ts")

		r := newRunner()
		r.JSONFlag = true
		_, err := r.Run(context.Background())
		Expect(err).To(Succeed())

		Expect(stdOut.String()).To(MatchJSON(`{
			"issues": {
				"exports": {
					"src/b.ts": {
						"stale": {"category": "exports", "path": "src/b.ts", "symbol": "stale"}
					}
				}
			},
			"counters": {
				"files": 0, "exports": 1, "types": 0, "members": 0,
				"duplicates": 0, "processedFiles": 1
			}
		}`))
	})

	It("keeps debug lines intact by not rendering progress alongside them", func() {
		oracle.addFile("/proj/src/index.ts", true, true)
		b := oracle.addFile("/proj/src/b.ts", false, true)
		oracle.export(b, "one")
		oracle.export(b, "two")

		r := newRunner()
		r.ShowProgressFlag = true
		r.DebugFlag = true
		_, err := r.Run(context.Background())
		Expect(err).To(Succeed())

		Expect(stdErr.String()).To(ContainSubstring("Analyzing /proj/src/b.ts"))
		Expect(stdErr.String()).NotTo(ContainSubstring("\x1b["), "in-place rewriting would erase the debug lines")
	})

	It("streams progress through the sink and clears it at the end", func() {
		oracle.addFile("/proj/src/index.ts", true, true)
		b := oracle.addFile("/proj/src/b.ts", false, true)
		c := oracle.addFile("/proj/src/c.ts", false, true)
		oracle.export(b, "one")
		oracle.export(b, "two")
		oracle.export(c, "three")
		oracle.export(c, "four")
		oracle.addFile("/proj/src/orphan.ts", false, false)

		sink := &recordingSink{}
		r := newRunner()
		r.SetProgressSink(sink)
		_, err := r.Run(context.Background())
		Expect(err).To(Succeed())

		// One update per analyzed file plus the final one.
		Expect(sink.updates).To(HaveLen(3))
		Expect(sink.done).To(Equal(1))

		first := sink.updates[0]
		Expect(first[0]).To(Equal("33% of files processed (1 of 3)"))
		Expect(first).To(ContainElement("Processing: src/b.ts"))

		last := sink.updates[len(sink.updates)-1]
		Expect(last[0]).To(Equal("100% of files processed (3 of 3)"))
		Expect(last).NotTo(ContainElement(HavePrefix("Processing:")))
	})
})
