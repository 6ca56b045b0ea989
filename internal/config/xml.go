package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

const (
	xmlRootElement              = "configuration"
	xmlProjectNameElement       = "ProjectName"
	xmlVersionElement           = "Version"
	xmlCreatedElement           = "Created"
	xmlUpdateMinutesElement     = "UpdateCheckMinutes"
	xmlUpdateTimeoutElement     = "UpdateCheckTimeoutSeconds"
	xmlUpdateURLElement         = "UpdateUrl"
	xmlExtensionsElement        = "extensions"
	xmlExtensionElement         = "extension"
	xmlGroupElement             = "group"
	xmlIncludePathsElement      = "includePaths"
	xmlIncludePathElement       = "includePath"
	xmlIncludeFilesElement      = "includeFiles"
	xmlIncludeFileElement       = "includeFile"
	xmlExcludePathsElement      = "excludePaths"
	xmlExcludePathElement       = "excludePath"
	xmlResultPathElement        = "ResultPath"
	xmlResultMaskElement        = "ResultFilenameMask"
	xmlEnableZipElement         = "EnableZip"
	xmlDeleteUnzippedElement    = "DeleteUnzipped"
	xmlLegacyDeleteUnzipElement = "DeleteUnziped"
	xmlMaxFileSizeElement       = "MaxFileSizeMB"
	xmlMaxFileAgeElement        = "MaxFileAgeDays"
	xmlIncrementalElement       = "Incremental"
	xmlCleanupKeepLastElement   = "CleanupKeepLast"
	xmlIsExampleElement         = "IsExample"
	xmlNameAttribute            = "name"
	xmlTreeOnlyAttribute        = "tree_only"
	xmlEnableAttribute          = "enable"
	xmlRecursiveAttribute       = "recursive"
	readXMLConfigurationFormat  = "read XML configuration from %s: %w"
	missingXMLRootErrorFormat   = "XML configuration %s has no <%s> element"
	invalidXMLValueErrorFormat  = "XML configuration %s: element <%s>: %w"
	writeXMLConfigurationFormat = "write XML configuration to %s: %w"
)

func loadXMLConfiguration(path string) (Configuration, error) {
	document := etree.NewDocument()
	if readError := document.ReadFromFile(path); readError != nil {
		return Configuration{}, fmt.Errorf(readXMLConfigurationFormat, path, readError)
	}
	root := document.SelectElement(xmlRootElement)
	if root == nil {
		return Configuration{}, fmt.Errorf(missingXMLRootErrorFormat, path, xmlRootElement)
	}

	configuration := Default()
	configuration.ProjectName = childText(root, xmlProjectNameElement)
	configuration.Version = childText(root, xmlVersionElement)
	configuration.Created = childText(root, xmlCreatedElement)
	if updateURL := childText(root, xmlUpdateURLElement); updateURL != "" {
		configuration.UpdateURL = updateURL
	}
	if resultPath := childText(root, xmlResultPathElement); resultPath != "" {
		configuration.ResultPath = resultPath
	}
	if resultMask := childText(root, xmlResultMaskElement); resultMask != "" {
		configuration.ResultFilenameMask = resultMask
	}

	integerFields := []struct {
		elementName string
		target      *int
	}{
		{xmlUpdateMinutesElement, &configuration.UpdateCheckMinutes},
		{xmlUpdateTimeoutElement, &configuration.UpdateCheckTimeoutSeconds},
		{xmlMaxFileSizeElement, &configuration.MaxFileSizeMB},
		{xmlMaxFileAgeElement, &configuration.MaxFileAgeDays},
		{xmlCleanupKeepLastElement, &configuration.CleanupKeepLast},
	}
	for _, field := range integerFields {
		if parseError := parseIntegerChild(root, field.elementName, field.target); parseError != nil {
			return Configuration{}, fmt.Errorf(invalidXMLValueErrorFormat, path, field.elementName, parseError)
		}
	}

	booleanFields := []struct {
		elementName string
		target      *bool
	}{
		{xmlEnableZipElement, &configuration.EnableZip},
		{xmlDeleteUnzippedElement, &configuration.DeleteUnzipped},
		{xmlLegacyDeleteUnzipElement, &configuration.DeleteUnzipped},
		{xmlIncrementalElement, &configuration.Incremental},
		{xmlIsExampleElement, &configuration.IsExample},
	}
	for _, field := range booleanFields {
		if parseError := parseBooleanChild(root, field.elementName, field.target); parseError != nil {
			return Configuration{}, fmt.Errorf(invalidXMLValueErrorFormat, path, field.elementName, parseError)
		}
	}

	if extensionsElement := root.SelectElement(xmlExtensionsElement); extensionsElement != nil {
		configuration.Extensions.Items = readItems(extensionsElement, xmlExtensionElement)
		for _, groupElement := range extensionsElement.SelectElements(xmlGroupElement) {
			configuration.Extensions.Groups = append(configuration.Extensions.Groups, ExtensionGroup{
				Name:     groupElement.SelectAttrValue(xmlNameAttribute, ""),
				TreeOnly: attributeIsTrue(groupElement, xmlTreeOnlyAttribute),
				Items:    readItems(groupElement, xmlExtensionElement),
			})
		}
	}
	if includePaths := root.SelectElement(xmlIncludePathsElement); includePaths != nil {
		configuration.IncludePaths = readItems(includePaths, xmlIncludePathElement)
	}
	if includeFiles := root.SelectElement(xmlIncludeFilesElement); includeFiles != nil {
		configuration.IncludeFiles = readItems(includeFiles, xmlIncludeFileElement)
	}
	if excludePaths := root.SelectElement(xmlExcludePathsElement); excludePaths != nil {
		for _, excludeElement := range excludePaths.SelectElements(xmlExcludePathElement) {
			configuration.ExcludePaths = append(configuration.ExcludePaths, strings.TrimSpace(excludeElement.Text()))
		}
	}
	return configuration, nil
}

func readItems(parent *etree.Element, elementName string) []ConfigItem {
	items := []ConfigItem{}
	for _, itemElement := range parent.SelectElements(elementName) {
		item := ConfigItem{
			Value:    strings.TrimSpace(itemElement.Text()),
			TreeOnly: attributeIsTrue(itemElement, xmlTreeOnlyAttribute),
		}
		if enableAttribute := itemElement.SelectAttr(xmlEnableAttribute); enableAttribute != nil {
			enabled := parseBooleanText(enableAttribute.Value)
			item.Enable = &enabled
		}
		if recursiveAttribute := itemElement.SelectAttr(xmlRecursiveAttribute); recursiveAttribute != nil {
			recursive := parseBooleanText(recursiveAttribute.Value)
			item.Recursive = &recursive
		}
		items = append(items, item)
	}
	return items
}

func childText(parent *etree.Element, elementName string) string {
	child := parent.SelectElement(elementName)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.Text())
}

func parseIntegerChild(parent *etree.Element, elementName string, target *int) error {
	text := childText(parent, elementName)
	if text == "" {
		return nil
	}
	value, parseError := strconv.Atoi(text)
	if parseError != nil {
		return parseError
	}
	*target = value
	return nil
}

func parseBooleanChild(parent *etree.Element, elementName string, target *bool) error {
	text := childText(parent, elementName)
	if text == "" {
		return nil
	}
	if number, numberError := strconv.Atoi(text); numberError == nil {
		*target = number != 0
		return nil
	}
	value, parseError := strconv.ParseBool(text)
	if parseError != nil {
		return parseError
	}
	*target = value
	return nil
}

func attributeIsTrue(element *etree.Element, attributeName string) bool {
	return parseBooleanText(element.SelectAttrValue(attributeName, ""))
}

func parseBooleanText(text string) bool {
	value, parseError := strconv.ParseBool(strings.TrimSpace(text))
	return parseError == nil && value
}

// updateXMLBookkeeping rewrites the Version and Created elements in place, keeping comments and
// layout of the rest of the document. Created is inserted after Version when absent.
func updateXMLBookkeeping(path string, version string, created string) error {
	document := etree.NewDocument()
	document.ReadSettings.PreserveCData = true
	if readError := document.ReadFromFile(path); readError != nil {
		return fmt.Errorf(readXMLConfigurationFormat, path, readError)
	}
	root := document.SelectElement(xmlRootElement)
	if root == nil {
		return fmt.Errorf(missingXMLRootErrorFormat, path, xmlRootElement)
	}
	versionElement := root.SelectElement(xmlVersionElement)
	if versionElement == nil {
		versionElement = root.CreateElement(xmlVersionElement)
	}
	versionElement.SetText(version)

	createdElement := root.SelectElement(xmlCreatedElement)
	if createdElement == nil {
		createdElement = etree.NewElement(xmlCreatedElement)
		root.InsertChildAt(versionElement.Index()+1, createdElement)
	}
	createdElement.SetText(created)

	if writeError := document.WriteToFile(path); writeError != nil {
		return fmt.Errorf(writeXMLConfigurationFormat, path, writeError)
	}
	return nil
}
