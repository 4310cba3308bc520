package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zheng/schemagraph/internal/schema"
)

// Config represents the mock schema configuration
type Config struct {
	OutputDir      string
	NumNamespaces  int
	NumTypesPerNs  int
	MaxDepth       int
	RefDensity     float64 // 每个类型平均引用几个其他类型
	CrossNamespace float64 // 引用落在其他命名空间的概率
	WithCycle      bool
	Seed           int64
}

// typeInfo represents a generated type
type typeInfo struct {
	Namespace string
	Name      string
	Entity    bool
	Depth     int
}

func (t typeInfo) FQN() string { return t.Namespace + "." + t.Name }

func main() {
	cfg := Config{}
	flag.StringVar(&cfg.OutputDir, "o", "./mock-schemas", "输出目录")
	flag.IntVar(&cfg.NumNamespaces, "ns", 5, "命名空间数量")
	flag.IntVar(&cfg.NumTypesPerNs, "types", 40, "每个命名空间的类型数量")
	flag.IntVar(&cfg.MaxDepth, "depth", 6, "最大依赖深度")
	flag.Float64Var(&cfg.RefDensity, "density", 2.0, "平均每个类型引用几个其他类型")
	flag.Float64Var(&cfg.CrossNamespace, "cross", 0.3, "跨命名空间引用概率")
	flag.BoolVar(&cfg.WithCycle, "cycle", false, "加入一个循环依赖")
	flag.Int64Var(&cfg.Seed, "seed", time.Now().UnixNano(), "随机种子")
	flag.Parse()

	fmt.Printf("正在生成 mock 模型...\n")
	fmt.Printf("  命名空间数量: %d\n", cfg.NumNamespaces)
	fmt.Printf("  每命名空间类型数: %d\n", cfg.NumTypesPerNs)
	fmt.Printf("  总类型数: %d\n", cfg.NumNamespaces*cfg.NumTypesPerNs)
	fmt.Printf("  最大深度: %d\n", cfg.MaxDepth)
	fmt.Printf("  引用密度: %.1f\n", cfg.RefDensity)
	fmt.Printf("  随机种子: %d\n", cfg.Seed)

	if err := generate(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n✓ 模型生成完成: %s\n", cfg.OutputDir)
	fmt.Printf("\n下一步:\n")
	fmt.Printf("  sgraph analyze %s\n", cfg.OutputDir)
	fmt.Printf("  sgraph validate %s\n", cfg.OutputDir)
}

func generate(cfg *Config) error {
	if cfg.NumNamespaces < 1 || cfg.NumTypesPerNs < 1 || cfg.MaxDepth < 1 {
		return fmt.Errorf("命名空间数、类型数和深度都必须大于 0")
	}
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	types := registry(cfg, rng)
	byDepth := make(map[int][]typeInfo)
	for _, t := range types {
		byDepth[t.Depth] = append(byDepth[t.Depth], t)
	}

	docs := make(map[string]*schema.Schema)
	for i := 0; i < cfg.NumNamespaces; i++ {
		ns := namespaceName(i)
		docs[ns] = &schema.Schema{Namespace: ns}
	}

	for _, t := range types {
		refs := pickRefs(cfg, rng, t, byDepth)
		addType(docs[t.Namespace], t, refs)
	}

	if cfg.WithCycle {
		addCycle(docs, types)
	}

	for i := 0; i < cfg.NumNamespaces; i++ {
		ns := namespaceName(i)
		s := docs[ns]
		s.EntityContainer = container(s)
		if err := writeSchema(cfg.OutputDir, &schema.Document{Schemas: []*schema.Schema{s}}); err != nil {
			return err
		}
	}
	return nil
}

func namespaceName(i int) string {
	return fmt.Sprintf("Mock.Ns%02d", i)
}

// registry lays out every type and assigns it a depth. Depth 0 types are
// leaves; a type only references types of a lower depth.
func registry(cfg *Config, rng *rand.Rand) []typeInfo {
	var types []typeInfo
	for i := 0; i < cfg.NumNamespaces; i++ {
		for j := 0; j < cfg.NumTypesPerNs; j++ {
			t := typeInfo{
				Namespace: namespaceName(i),
				Depth:     j % cfg.MaxDepth,
				Entity:    rng.Intn(2) == 0,
			}
			if t.Entity {
				t.Name = fmt.Sprintf("Entity%03d", j)
			} else {
				t.Name = fmt.Sprintf("Complex%03d", j)
			}
			types = append(types, t)
		}
	}
	return types
}

func pickRefs(cfg *Config, rng *rand.Rand, t typeInfo, byDepth map[int][]typeInfo) []typeInfo {
	if t.Depth == 0 {
		return nil
	}
	n := int(cfg.RefDensity)
	if rng.Float64() < cfg.RefDensity-float64(n) {
		n++
	}

	seen := make(map[string]bool)
	var refs []typeInfo
	for k := 0; k < n*3 && len(refs) < n; k++ {
		pool := byDepth[rng.Intn(t.Depth)]
		if len(pool) == 0 {
			continue
		}
		cand := pool[rng.Intn(len(pool))]
		if cand.Namespace != t.Namespace && rng.Float64() >= cfg.CrossNamespace {
			continue
		}
		if seen[cand.FQN()] {
			continue
		}
		seen[cand.FQN()] = true
		refs = append(refs, cand)
	}
	return refs
}

func addType(s *schema.Schema, t typeInfo, refs []typeInfo) {
	props := []*schema.Property{
		{Name: "Id", Type: "Edm.Int32"},
		{Name: "Name", Type: "Edm.String", MaxLength: "64"},
	}
	var navs []*schema.NavigationProperty
	for i, r := range refs {
		if r.Entity && t.Entity {
			navs = append(navs, &schema.NavigationProperty{Name: fmt.Sprintf("Nav%d", i), Type: r.FQN()})
			continue
		}
		typ := r.FQN()
		if i%2 == 1 {
			typ = "Collection(" + typ + ")"
		}
		props = append(props, &schema.Property{Name: fmt.Sprintf("Ref%d", i), Type: typ})
	}

	if t.Entity {
		s.EntityTypes = append(s.EntityTypes, &schema.EntityType{
			Name:                 t.Name,
			Key:                  []string{"Id"},
			Properties:           props,
			NavigationProperties: navs,
		})
		return
	}
	s.ComplexTypes = append(s.ComplexTypes, &schema.ComplexType{Name: t.Name, Properties: props})
}

// addCycle makes the first leaf of the first namespace reference its
// deepest type, closing a loop.
func addCycle(docs map[string]*schema.Schema, types []typeInfo) {
	var leaf, deep *typeInfo
	for i := range types {
		t := &types[i]
		if t.Namespace != namespaceName(0) {
			continue
		}
		if leaf == nil && t.Depth == 0 {
			leaf = t
		}
		if deep == nil || t.Depth > deep.Depth {
			deep = t
		}
	}
	if leaf == nil || deep == nil || deep.Depth == 0 {
		return
	}
	prop := &schema.Property{Name: "Back", Type: deep.FQN()}
	s := docs[leaf.Namespace]
	for _, et := range s.EntityTypes {
		if et.Name == leaf.Name {
			et.Properties = append(et.Properties, prop)
			return
		}
	}
	for _, ct := range s.ComplexTypes {
		if ct.Name == leaf.Name {
			ct.Properties = append(ct.Properties, prop)
			return
		}
	}
}

func container(s *schema.Schema) *schema.EntityContainer {
	c := &schema.EntityContainer{Name: "Container"}
	for _, et := range s.EntityTypes {
		c.EntitySets = append(c.EntitySets, &schema.EntitySet{
			Name:       et.Name + "Set",
			EntityType: s.Namespace + "." + et.Name,
		})
	}
	return c
}

func writeSchema(dir string, doc *schema.Document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	name := doc.Schemas[0].Namespace + ".yaml"
	return os.WriteFile(filepath.Join(dir, name), data, 0644)
}
