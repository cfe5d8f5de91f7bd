// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"flag"
	"io/ioutil"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Godric2010/resa/utility/kar"
)

func currentUserName() string {
	u, err := user.Current()
	if err != nil || u.Username == "" {
		return "unknown"
	}
	return u.Username
}

var (
	author   = flag.String("author", currentUserName(), "Set the author of the package when compressing")
	version  = flag.Int64("version", 1, "Archive version number to create it with")
	extract  = flag.String("e", "", "Extract the given archive into the destination folder")
	compress = flag.String("c", "", "Compress the given file/folder")
	list     = flag.String("l", "", "List the contents of the given archive")
	dst      = flag.String("f", "out.kar", "Destination file when compressing, folder when extracting")
	silent   = flag.Bool("s", false, "Silent")
)

func main() {
	flag.Parse()
	log := logrus.New()
	if *silent {
		log.SetLevel(logrus.WarnLevel)
	}

	ops := 0
	for _, op := range []string{*extract, *compress, *list} {
		if op != "" {
			ops++
		}
	}
	if ops != 1 {
		if ops > 1 {
			log.Error("only one operation at a time")
		}
		flag.PrintDefaults()
		os.Exit(2)
	}

	var err error
	switch {
	case *compress != "":
		err = compressFiles(log, *compress, *dst)
	case *extract != "":
		err = extractFiles(log, *extract, *dst)
	case *list != "":
		err = listFiles(log, *list)
	}
	if err != nil {
		log.WithError(err).Fatal("kar failed")
	}
}

func compressFiles(log logrus.FieldLogger, src, dstFile string) error {
	if _, err := os.Stat(dstFile); err == nil {
		return errors.Errorf("%s exists, will not overwrite", dstFile)
	}

	var filesToCompress []string
	err := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			filesToCompress = append(filesToCompress, path)
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "walk %s", src)
	}

	builder, err := kar.NewBuilder(kar.Header{
		Author:      *author,
		DateCreated: time.Now().Unix(),
		Version:     *version,
	})
	if err != nil {
		return err
	}
	defer builder.Close()

	for _, path := range filesToCompress {
		name, err := filepath.Rel(src, path)
		if err != nil || name == "." {
			name = filepath.Base(path)
		}
		if err := addFile(builder, filepath.ToSlash(name), path); err != nil {
			return err
		}
		log.WithField("file", name).Info("added")
	}

	out, err := os.Create(dstFile)
	if err != nil {
		return err
	}
	written, err := builder.WriteTo(out)
	if err != nil {
		out.Close()
		return errors.Wrapf(err, "write %s", dstFile)
	}
	log.WithFields(logrus.Fields{"files": builder.Len(), "bytes": written}).Info("archive written")
	return out.Close()
}

func addFile(builder *kar.Builder, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return builder.Add(name, f)
}

func extractFiles(log logrus.FieldLogger, archivePath, dstDir string) error {
	archive, err := kar.OpenFile(archivePath)
	if err != nil {
		return err
	}
	defer archive.Close()

	for _, name := range archive.Names() {
		data, err := archive.ReadAll(name)
		if err != nil {
			return err
		}
		rel := filepath.Clean(filepath.FromSlash(name))
		if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return errors.Errorf("%s: refusing to extract outside %s", name, dstDir)
		}
		target := filepath.Join(dstDir, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		if err := ioutil.WriteFile(target, data, 0644); err != nil {
			return err
		}
		log.WithField("file", target).Info("extracted")
	}
	return nil
}

func listFiles(log logrus.FieldLogger, archivePath string) error {
	archive, err := kar.OpenFile(archivePath)
	if err != nil {
		return err
	}
	defer archive.Close()

	header := archive.Header()
	log.WithFields(logrus.Fields{
		"author":  header.Author,
		"version": header.Version,
		"created": time.Unix(header.DateCreated, 0).Format(time.RFC3339),
	}).Info(archivePath)
	for _, e := range header.Index {
		log.WithFields(logrus.Fields{"size": e.Size, "compressed": e.CompressedSize}).Info(e.Name)
	}
	return nil
}
