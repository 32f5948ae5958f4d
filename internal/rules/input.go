package rules

import (
	"fmt"
	"os"

	"github.com/allanpk716/hwpx_replacer/internal/domain"
	"gopkg.in/yaml.v3"
)

// LoadInputFile 读取替换输入文件（JSON 或 YAML）
func LoadInputFile(path string) (*domain.SubstitutionInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取替换输入失败: %w", err)
	}
	return ParseInput(data)
}

// ParseInput 解析替换输入，保留用户给出的顺序
// 支持三种形式：字段→值表、{field, value} 列表、{original, modified} 列表，
// 列表也可以放在 replacements 键下
func ParseInput(data []byte) (*domain.SubstitutionInput, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("解析替换输入失败: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("替换输入为空")
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.MappingNode:
		if list := mappingValue(root, "replacements"); list != nil {
			return parseList(list)
		}
		return parseTable(root)
	case yaml.SequenceNode:
		return parseList(root)
	default:
		return nil, fmt.Errorf("不支持的替换输入格式")
	}
}

func parseTable(node *yaml.Node) (*domain.SubstitutionInput, error) {
	input := &domain.SubstitutionInput{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		text, err := scalar(value)
		if err != nil {
			return nil, fmt.Errorf("字段 %s: %w", key.Value, err)
		}
		input.Fields = append(input.Fields, domain.FieldValue{Field: key.Value, Value: text})
	}
	return input, nil
}

func parseList(node *yaml.Node) (*domain.SubstitutionInput, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("replacements 必须是列表")
	}

	input := &domain.SubstitutionInput{}
	for i, item := range node.Content {
		if item.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("第 %d 项必须是对象", i+1)
		}
		values := make(map[string]string, len(item.Content)/2)
		for j := 0; j+1 < len(item.Content); j += 2 {
			text, err := scalar(item.Content[j+1])
			if err != nil {
				return nil, fmt.Errorf("第 %d 项 %s: %w", i+1, item.Content[j].Value, err)
			}
			values[item.Content[j].Value] = text
		}

		if original, ok := values["original"]; ok {
			modified, ok := values["modified"]
			if !ok {
				modified = values["value"]
			}
			input.Pairs = append(input.Pairs, domain.LineReplace(values["field"], original, modified))
			continue
		}
		field, ok := values["field"]
		if !ok {
			return nil, fmt.Errorf("第 %d 项缺少 field 或 original", i+1)
		}
		input.Fields = append(input.Fields, domain.FieldValue{Field: field, Value: values["value"]})
	}
	return input, nil
}

// mappingValue 返回映射节点中指定键的值
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func scalar(node *yaml.Node) (string, error) {
	if node.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("值必须是标量")
	}
	if node.Tag == "!!null" {
		return "", nil
	}
	return node.Value, nil
}
